// Package expander implements the register-caching algorithm shared by
// the I2C port-expander drivers.  The 8-bit and 16-bit chips differ only
// in word width and register layout, so the per-module cache state, the
// lazy mode switching, and the staleness accounting live here while the
// chip packages supply the bus transactions through PortIO.
//
// The contract with the bus is deliberately narrow: a write to a module
// pushes the whole output word in one transaction and invalidates that
// module's cached inputs; a read serves the cached input word while its
// staleness counter is non-zero and refreshes from the bus otherwise.
// The periodic tick only decrements counters and never touches the bus.
package expander

import "stationhal-go/x/mathx"

// PortIO performs the chip-specific transactions for one module.  Words
// are chip-width: the 8-bit chips use the low byte.
type PortIO interface {
	// SetupModule initialises chip registers at begin time.
	SetupModule(module int) error
	// WriteOutputs pushes the whole output word.
	WriteOutputs(module int, state uint16) error
	// WriteModes pushes the mode word (bit set = output).  No-op for
	// quasi-bidirectional chips without direction registers.
	WriteModes(module int, modes uint16) error
	// WritePullups pushes the input pullup word.  No-op where the chip
	// has no pullup control.
	WritePullups(module int, pullups uint16) error
	// ReadInputs fetches the current input word.
	ReadInputs(module int) (uint16, error)
}

// Config tunes the cache behaviour.  Zero values select the defaults.
type Config struct {
	PinsPerModule int   // 8 or 16
	FreshTicks    uint8 // ticks a cached input read stays valid (default 2)
	TickMicros    int64 // staleness tick interval in µs (default 500)
	// OpenDrain marks quasi-bidirectional chips: no direction registers,
	// and an input bit must be driven high before it can be sensed.
	OpenDrain bool
}

const (
	defaultFreshTicks = 2
	defaultTickMicros = 500
)

// Ports is the cache state for a bank of identical modules on
// consecutive bus addresses.  Buffers are sized once at construction.
type Ports struct {
	cfg Config
	io  PortIO

	out   []uint16
	in    []uint16
	modes []uint16 // bit set = output
	pulls []uint16
	stale []uint8 // staleness countdown per module; 0 = must refresh

	lastTick int64
}

// NewPorts builds cache state for nModules modules.
func NewPorts(nModules int, io PortIO, cfg Config) *Ports {
	if cfg.FreshTicks == 0 {
		cfg.FreshTicks = defaultFreshTicks
	}
	if cfg.TickMicros == 0 {
		cfg.TickMicros = defaultTickMicros
	}
	if cfg.PinsPerModule == 0 {
		cfg.PinsPerModule = 8
	}
	return &Ports{
		cfg:   cfg,
		io:    io,
		out:   make([]uint16, nModules),
		in:    make([]uint16, nModules),
		modes: make([]uint16, nModules),
		pulls: make([]uint16, nModules),
		stale: make([]uint8, nModules),
	}
}

// Modules reports the number of modules in the bank.
func (p *Ports) Modules() int { return len(p.out) }

// PinsPerModule reports the chip width.
func (p *Ports) PinsPerModule() int { return p.cfg.PinsPerModule }

// Split maps a zero-based pin index onto (module, bit).
func (p *Ports) Split(pinIndex int) (module, bit int) {
	return pinIndex / p.cfg.PinsPerModule, pinIndex % p.cfg.PinsPerModule
}

// Begin resets the cache to power-on defaults and programs every module:
// all pins input, no pullups, outputs low.  Write errors are ignored; an
// absent module simply stays silent until it appears on the bus.
func (p *Ports) Begin() {
	for m := range p.out {
		p.out[m] = 0
		p.in[m] = 0
		p.modes[m] = 0
		p.pulls[m] = 0
		p.stale[m] = 0
		p.io.SetupModule(m)
		p.io.WriteOutputs(m, p.out[m])
		p.io.WriteModes(m, p.modes[m])
		p.io.WritePullups(m, p.pulls[m])
	}
}

// Write sets one pin of one module.  The pin's mode is reprogrammed only
// when it was not already an output; the entire output word is pushed in
// one transaction; and the module's staleness counter is forced to zero
// so the next read refreshes from the bus rather than serving pre-write
// cached input state.
func (p *Ports) Write(module, bit int, value int) {
	mask := uint16(1) << bit
	if !p.cfg.OpenDrain && p.modes[module]&mask == 0 {
		p.modes[module] |= mask
		p.io.WriteModes(module, p.modes[module])
	}
	if value != 0 {
		p.out[module] |= mask
	} else {
		p.out[module] &^= mask
	}
	p.io.WriteOutputs(module, p.out[module])
	p.stale[module] = 0
}

// Read returns one pin of one module, from cache when fresh.  On the
// open-drain chips an input can only be sensed while its line is driven
// high, so a low output bit is raised first with an immediate bus write.
// A bus read failure is served as all-bits-zero, not propagated.
func (p *Ports) Read(module, bit int) bool {
	mask := uint16(1) << bit
	changed := false
	if p.cfg.OpenDrain {
		if p.out[module]&mask == 0 {
			p.out[module] |= mask
			p.io.WriteOutputs(module, p.out[module])
			p.stale[module] = 0
			changed = true
		}
	} else if p.modes[module]&mask != 0 {
		p.modes[module] &^= mask
		p.io.WriteModes(module, p.modes[module])
		changed = true
	}
	if changed || p.stale[module] == 0 {
		w, err := p.io.ReadInputs(module)
		if err != nil {
			w = 0
		}
		p.in[module] = w
		p.stale[module] = p.cfg.FreshTicks
	}
	return p.in[module]&mask != 0
}

// ConfigureInput sets the pullup for one pin and refreshes the module's
// input word so the caller observes the new electrical state at once.
func (p *Ports) ConfigureInput(module, bit int, pullup bool) bool {
	mask := uint16(1) << bit
	if pullup {
		p.pulls[module] |= mask
	} else {
		p.pulls[module] &^= mask
	}
	p.io.WritePullups(module, p.pulls[module])
	w, err := p.io.ReadInputs(module)
	if err != nil {
		w = 0
	}
	p.in[module] = w
	p.stale[module] = p.cfg.FreshTicks
	return true
}

// Tick ages every module's staleness counter by the number of whole
// ticks elapsed since the last call, floored at zero.  It never issues a
// bus transaction.
func (p *Ports) Tick(nowMicros int64) {
	if p.lastTick == 0 {
		p.lastTick = nowMicros
		return
	}
	elapsed := (nowMicros - p.lastTick) / p.cfg.TickMicros
	if elapsed <= 0 {
		return
	}
	for m := range p.stale {
		p.stale[m] = uint8(mathx.Max(0, int(p.stale[m])-int(elapsed)))
	}
	p.lastTick += elapsed * p.cfg.TickMicros
}
