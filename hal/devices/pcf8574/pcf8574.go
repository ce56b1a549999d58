// Package pcf8574 drives banks of PCF8574 8-bit I2C port expanders.  The
// chip has no registers at all: a bare write sets the quasi-bidirectional
// port and a bare read samples it.  Sensing an input requires its line to
// be driven high first, which the expander core handles as the open-drain
// quirk.
package pcf8574

import (
	"fmt"
	"strings"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/hal/devices/expander"
	"stationhal-go/i2cmgr"
	"stationhal-go/types"
	"stationhal-go/x/mathx"
)

const (
	pinsPerModule = 8
	maxPins       = 64
	clockHz       = 100_000 // only supports the slow clock
)

type Driver struct {
	hal.Base

	bus   *i2cmgr.Manager
	addr  uint8
	ports *expander.Ports
}

// New claims vpins [firstPin, firstPin+nPins) across modules on
// consecutive addresses starting at addr.
func New(firstPin types.VPIN, nPins int, addr uint8, bus *i2cmgr.Manager, lg *diag.Logger) *Driver {
	nPins = mathx.Clamp(nPins, 1, maxPins)
	d := &Driver{bus: bus, addr: addr}
	d.First = firstPin
	d.NPins = nPins
	d.SetDiag(lg)
	nModules := (nPins + pinsPerModule - 1) / pinsPerModule
	d.ports = expander.NewPorts(nModules, (*portIO)(d), expander.Config{
		PinsPerModule: pinsPerModule,
		OpenDrain:     true,
	})
	return d
}

func (d *Driver) Begin() {
	d.bus.Begin()
	d.bus.SetClock(clockHz)
	for m := 0; m < d.ports.Modules(); m++ {
		if d.bus.Exists(d.addr + uint8(m)) {
			d.Logf("PCF8574 configured on I2C:x%x", d.addr+uint8(m))
		}
	}
	d.ports.Begin()
}

func (d *Driver) Write(vpin types.VPIN, value int) {
	m, bit := d.ports.Split(d.PinIndex(vpin))
	d.ports.Write(m, bit, value)
}

func (d *Driver) Read(vpin types.VPIN) bool {
	m, bit := d.ports.Split(d.PinIndex(vpin))
	return d.ports.Read(m, bit)
}

func (d *Driver) Tick(nowMicros int64) { d.ports.Tick(nowMicros) }

func (d *Driver) Describe() string {
	var b strings.Builder
	for m := 0; m < d.ports.Modules(); m++ {
		if m > 0 {
			b.WriteByte('\n')
		}
		lo := d.First + types.VPIN(m*pinsPerModule)
		hi := mathx.Min(lo+pinsPerModule-1, d.First+types.VPIN(d.NPins)-1)
		fmt.Fprintf(&b, "PCF8574 VPins:%d-%d I2C:x%x", lo, hi, d.addr+uint8(m))
	}
	return b.String()
}

// portIO adapts the driver to the expander bus contract.  There are no
// registers: outputs are pushed as a raw byte and inputs sampled the same
// way.  Mode and pullup words have no hardware counterpart.
type portIO Driver

func (p *portIO) module(m int) uint8 { return p.addr + uint8(m) }

func (p *portIO) SetupModule(int) error { return nil }

func (p *portIO) WriteOutputs(m int, state uint16) error {
	return p.bus.Write(p.module(m), byte(state))
}

func (p *portIO) WriteModes(int, uint16) error { return nil }

func (p *portIO) WritePullups(int, uint16) error { return nil }

func (p *portIO) ReadInputs(m int) (uint16, error) {
	var buf [1]byte
	if _, err := p.bus.Read(p.module(m), buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]), nil
}
