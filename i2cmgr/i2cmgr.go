// Package i2cmgr wraps an I2C bus behind the blocking register primitives
// the device drivers consume: begin, clock selection, address probing, and
// register-style reads and writes.  All operations are synchronous and are
// intended to be issued from a driver's Begin/Configure/Write/Read methods
// only, never from its periodic Tick, so worst-case tick latency stays
// bounded.
package i2cmgr

import (
	"stationhal-go/errcode"

	"tinygo.org/x/drivers"
)

// clockSetter is optionally implemented by buses that can change rate
// after configuration (e.g. machine.I2C on TinyGo targets).
type clockSetter interface {
	SetBaudRate(br uint32) error
}

// Manager serialises access to one physical I2C bus.
type Manager struct {
	bus     drivers.I2C
	started bool
	clockHz uint32
}

// New returns a Manager over a configured bus.
func New(bus drivers.I2C) *Manager {
	return &Manager{bus: bus}
}

// Begin marks the bus ready.  Drivers call it from their own Begin; repeat
// calls are harmless, mirroring multiple drivers sharing one bus.
func (m *Manager) Begin() {
	m.started = true
}

// SetClock requests a bus clock rate.  Successive drivers may ask for
// different rates; the slowest requested rate wins, since every chip on
// the bus must tolerate the clock actually used.
func (m *Manager) SetClock(hz uint32) {
	if m.clockHz != 0 && hz >= m.clockHz {
		return
	}
	m.clockHz = hz
	if cs, ok := m.bus.(clockSetter); ok {
		cs.SetBaudRate(hz)
	}
}

// ClockHz reports the currently selected clock rate (0 = bus default).
func (m *Manager) ClockHz() uint32 { return m.clockHz }

// Exists probes for a device by issuing an empty write transaction.
func (m *Manager) Exists(addr uint8) bool {
	return m.bus.Tx(uint16(addr), nil, nil) == nil
}

// Write sends data bytes to a device.  The first byte is conventionally a
// register number followed by the register value(s).
func (m *Manager) Write(addr uint8, data ...byte) error {
	if err := m.bus.Tx(uint16(addr), data, nil); err != nil {
		return &errcode.E{C: errcode.BusError, Op: "i2cmgr.Write", Err: err}
	}
	return nil
}

// Read fills buf from a device, optionally sending register-select bytes
// first (write-then-read in one transaction).  It returns the number of
// bytes transferred: len(buf) on success, 0 on any bus failure.  Callers
// treat a zero-length result as an all-bits-zero reading rather than a
// fault, so periodic polling self-heals on the next successful cycle.
func (m *Manager) Read(addr uint8, buf []byte, reg ...byte) (int, error) {
	if err := m.bus.Tx(uint16(addr), reg, buf); err != nil {
		return 0, &errcode.E{C: errcode.BusError, Op: "i2cmgr.Read", Err: err}
	}
	return len(buf), nil
}
