// Package mcp23008 drives banks of MCP23008 8-bit I2C port expanders.
// Up to 8 modules sit on consecutive addresses from the base, 8 vpins per
// module, with the caching behaviour supplied by the expander core.
package mcp23008

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

// Register map.
const (
	regIODIR   = 0x00
	regGPINTEN = 0x02
	regINTCON  = 0x04
	regIOCON   = 0x05
	regGPPU    = 0x06
	regGPIO    = 0x09
)

const (
	pinsPerModule = 8
	maxPins       = 64
	clockHz       = 1_000_000 // supports fast clock
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
	d.ports = expander.NewPorts(nModules, (*portIO)(d), expander.Config{PinsPerModule: pinsPerModule})
	return d
}

func (d *Driver) Begin() {
	d.bus.Begin()
	d.bus.SetClock(clockHz)
	for m := 0; m < d.ports.Modules(); m++ {
		if d.bus.Exists(d.addr + uint8(m)) {
			d.Logf("MCP23008 configured on I2C:x%x", d.addr+uint8(m))
		}
	}
	d.ports.Begin()
}

func (d *Driver) Configure(vpin types.VPIN, ct types.ConfigType, params []int) bool {
	if ct != types.ConfigureInput || len(params) != 1 {
		return false
	}
	m, bit := d.ports.Split(d.PinIndex(vpin))
	return d.ports.ConfigureInput(m, bit, params[0] != 0)
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
		fmt.Fprintf(&b, "MCP23008 VPins:%d-%d I2C:x%x", lo, hi, d.addr+uint8(m))
	}
	return b.String()
}

// portIO adapts the driver to the expander bus contract.  Direction bits
// on the chip are inverted relative to the cache (1 = input).
type portIO Driver

func (p *portIO) module(m int) uint8 { return p.addr + uint8(m) }

func (p *portIO) SetupModule(m int) error {
	// ODR=1: open-drain shared interrupt line, active low.
	return p.bus.Write(p.module(m), regIOCON, 0x04)
}

func (p *portIO) WriteOutputs(m int, state uint16) error {
	return p.bus.Write(p.module(m), regGPIO, byte(state))
}

func (p *portIO) WriteModes(m int, modes uint16) error {
	if err := p.bus.Write(p.module(m), regIODIR, ^byte(modes)); err != nil {
		return err
	}
	// Interrupt-on-change tracks the input pins.
	if err := p.bus.Write(p.module(m), regINTCON, 0x00); err != nil {
		return err
	}
	return p.bus.Write(p.module(m), regGPINTEN, ^byte(modes))
}

func (p *portIO) WritePullups(m int, pullups uint16) error {
	return p.bus.Write(p.module(m), regGPPU, byte(pullups))
}

func (p *portIO) ReadInputs(m int) (uint16, error) {
	var buf [1]byte
	if _, err := p.bus.Read(p.module(m), buf[:], regGPIO); err != nil {
		return 0, err
	}
	return uint16(buf[0]), nil
}
