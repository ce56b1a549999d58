// Package gpio is the pass-through driver for directly-attached
// microcontroller pins.  Virtual pin N maps one-to-one onto platform pin
// N; the driver's only added value is lazy mode switching so a pin is
// reprogrammed only when a write follows a read or vice versa.
package gpio

import (
	"fmt"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/types"
)

type pinMode uint8

const (
	modeUnset pinMode = iota
	modeInput
	modeOutput
)

// Driver drives a contiguous block of direct GPIO pins.  It is permanent
// for process lifetime and not deletable.
type Driver struct {
	hal.Base

	pins  types.PinFactory
	modes []pinMode
	pulls []types.Pull
}

// New claims vpins [firstPin, firstPin+nPins) backed by platform pins of
// the same numbers.
func New(firstPin types.VPIN, nPins int, pins types.PinFactory, lg *diag.Logger) *Driver {
	d := &Driver{
		pins:  pins,
		modes: make([]pinMode, nPins),
		pulls: make([]types.Pull, nPins),
	}
	d.First = firstPin
	d.NPins = nPins
	d.SetDiag(lg)
	for i := range d.pulls {
		d.pulls[i] = types.PullUp
	}
	return d
}

// Configure accepts ConfigureInput with one pullup parameter.
func (d *Driver) Configure(vpin types.VPIN, ct types.ConfigType, params []int) bool {
	if ct != types.ConfigureInput || len(params) != 1 {
		return false
	}
	i := d.PinIndex(vpin)
	if params[0] != 0 {
		d.pulls[i] = types.PullUp
	} else {
		d.pulls[i] = types.PullNone
	}
	// Force reprogramming on the next read.
	if d.modes[i] == modeInput {
		d.modes[i] = modeUnset
	}
	return true
}

func (d *Driver) Write(vpin types.VPIN, value int) {
	p, ok := d.pins.ByNumber(int(vpin))
	if !ok {
		d.Logf("GPIO: no platform pin %d", vpin)
		return
	}
	i := d.PinIndex(vpin)
	if d.modes[i] != modeOutput {
		if err := p.ConfigureOutput(value != 0); err != nil {
			d.Logf("GPIO: pin %d output config: %v", vpin, err)
			return
		}
		d.modes[i] = modeOutput
		return
	}
	p.Set(value != 0)
}

func (d *Driver) Read(vpin types.VPIN) bool {
	p, ok := d.pins.ByNumber(int(vpin))
	if !ok {
		d.Logf("GPIO: no platform pin %d", vpin)
		return false
	}
	i := d.PinIndex(vpin)
	if d.modes[i] != modeInput {
		if err := p.ConfigureInput(d.pulls[i]); err != nil {
			d.Logf("GPIO: pin %d input config: %v", vpin, err)
			return false
		}
		d.modes[i] = modeInput
	}
	return p.Get()
}

func (d *Driver) Describe() string {
	return fmt.Sprintf("GPIO VPins:%d-%d", d.First, d.First+types.VPIN(d.NPins)-1)
}
