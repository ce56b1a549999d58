// Package mcp23017 drives banks of MCP23017 16-bit I2C port expanders.
// The chip is two 8-bit ports behind paired registers; with sequential
// addressing enabled one transfer carries both bytes of a word, so the
// 16-bit cache words of the expander core map straight onto the wire.
package mcp23017

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

// Register map (IOCON.BANK = 0, A/B interleaved).
const (
	regIODIRA   = 0x00
	regGPINTENA = 0x04
	regINTCONA  = 0x08
	regIOCONA   = 0x0A
	regGPPUA    = 0x0C
	regGPIOA    = 0x12
)

const (
	pinsPerModule = 16
	maxPins       = 128
	clockHz       = 1_000_000
)

type Driver struct {
	hal.Base

	bus   *i2cmgr.Manager
	addr  uint8
	ports *expander.Ports
}

// New claims vpins [firstPin, firstPin+nPins) across modules on
// consecutive addresses starting at addr, 16 pins per module.
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
			d.Logf("MCP23017 configured on I2C:x%x", d.addr+uint8(m))
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
		fmt.Fprintf(&b, "MCP23017 VPins:%d-%d I2C:x%x", lo, hi, d.addr+uint8(m))
	}
	return b.String()
}

// portIO adapts the driver to the expander bus contract.  Word writes go
// out low byte (port A) then high byte (port B) under auto-increment.
type portIO Driver

func (p *portIO) module(m int) uint8 { return p.addr + uint8(m) }

func (p *portIO) writeWord(m int, reg byte, w uint16) error {
	return p.bus.Write(p.module(m), reg, byte(w), byte(w>>8))
}

func (p *portIO) SetupModule(m int) error {
	// Mirrored interrupt pins, open-drain, active low.
	return p.bus.Write(p.module(m), regIOCONA, 0x44, 0x44)
}

func (p *portIO) WriteOutputs(m int, state uint16) error {
	return p.writeWord(m, regGPIOA, state)
}

func (p *portIO) WriteModes(m int, modes uint16) error {
	// Chip direction bits are 1 for input, the inverse of the cache word.
	if err := p.writeWord(m, regIODIRA, ^modes); err != nil {
		return err
	}
	if err := p.writeWord(m, regINTCONA, 0); err != nil {
		return err
	}
	return p.writeWord(m, regGPINTENA, ^modes)
}

func (p *portIO) WritePullups(m int, pullups uint16) error {
	return p.writeWord(m, regGPPUA, pullups)
}

func (p *portIO) ReadInputs(m int) (uint16, error) {
	var buf [2]byte
	if _, err := p.bus.Read(p.module(m), buf[:], regGPIOA); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}
