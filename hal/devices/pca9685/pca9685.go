// Package pca9685 drives banks of PCA9685 16-channel PWM controllers,
// the usual backend for servo-driven turnouts and signals.  Values are
// raw mark ratios 0-4095.  Configuring a pin with servo parameters
// installs an animated analogue filter on the same vpin; the filter then
// forwards its positions back down to this driver through the registry's
// downstream path.
package pca9685

import (
	"fmt"
	"strings"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/hal/devices/analogue"
	"stationhal-go/i2cmgr"
	"stationhal-go/types"
	"stationhal-go/x/mathx"
)

// Register and mode-bit map.
const (
	regMode1      = 0x00
	regFirstServo = 0x06 // ON low byte of channel 0
	regPrescale   = 0xFE

	mode1Sleep   = 0x10
	mode1AI      = 0x20
	mode1Restart = 0x80
)

const (
	pinsPerModule = 16
	maxPins       = 64

	// ValueMax is the full-on mark ratio.
	ValueMax = 4095

	oscillatorHz = 25_000_000
	clockHz      = 1_000_000 // rated up to 1MHz I2C

	// 50Hz output, the 20ms pulse period servos expect.
	prescale50Hz = byte(oscillatorHz/(50*4096) - 1)
)

type Driver struct {
	hal.Base

	bus      *i2cmgr.Manager
	addr     uint8
	nModules int
	reg      *hal.Registry
}

// New claims vpins [firstPin, firstPin+nPins) across modules on
// consecutive addresses starting at addr, 16 channels per module.  The
// registry reference is used by Configure to install servo filters.
func New(firstPin types.VPIN, nPins int, addr uint8, bus *i2cmgr.Manager, reg *hal.Registry, lg *diag.Logger) *Driver {
	nPins = mathx.Clamp(nPins, 1, maxPins)
	d := &Driver{bus: bus, addr: addr, reg: reg}
	d.First = firstPin
	d.NPins = nPins
	d.nModules = (nPins + pinsPerModule - 1) / pinsPerModule
	d.SetDiag(lg)
	return d
}

func (d *Driver) Begin() {
	d.bus.Begin()
	d.bus.SetClock(clockHz)
	for m := 0; m < d.nModules; m++ {
		addr := d.addr + uint8(m)
		if !d.bus.Exists(addr) {
			d.Logf("PCA9685 not found at I2C:x%x", addr)
			continue
		}
		// Sleep while reprogramming the prescaler, then restart with
		// register auto-increment on.
		d.bus.Write(addr, regMode1, mode1Sleep|mode1AI)
		d.bus.Write(addr, regPrescale, prescale50Hz)
		d.bus.Write(addr, regMode1, mode1AI)
		d.bus.Write(addr, regMode1, mode1Restart|mode1AI)
	}
}

// Configure with servo parameters delegates to the analogue filter: the
// filter claims this same vpin ahead of us in the chain and animates the
// channel underneath.
func (d *Driver) Configure(vpin types.VPIN, ct types.ConfigType, params []int) bool {
	if ct != types.ConfigureServo || len(params) != 4 {
		return false
	}
	return analogue.Create(d.reg, vpin, params[0], params[1], params[2], params[3]) == nil
}

// Write sets a channel's mark ratio, 0-4095; 4095 selects the chip's
// full-on bit.  Values outside the range are clamped.
func (d *Driver) Write(vpin types.VPIN, value int) {
	pin := d.PinIndex(vpin)
	addr := d.addr + uint8(pin/pinsPerModule)
	ch := pin % pinsPerModule
	value = mathx.Clamp(value, 0, ValueMax)
	buf := [5]byte{byte(regFirstServo + 4*ch), 0, 0, byte(value), byte(value >> 8)}
	if value == ValueMax {
		buf[2] = 0x10 // full on
		buf[3], buf[4] = 0, 0
	}
	d.bus.Write(addr, buf[:]...)
}

func (d *Driver) Describe() string {
	var b strings.Builder
	for m := 0; m < d.nModules; m++ {
		if m > 0 {
			b.WriteByte('\n')
		}
		lo := d.First + types.VPIN(m*pinsPerModule)
		hi := mathx.Min(lo+pinsPerModule-1, d.First+types.VPIN(d.NPins)-1)
		fmt.Fprintf(&b, "PCA9685 VPins:%d-%d I2C:x%x", lo, hi, d.addr+uint8(m))
	}
	return b.String()
}
