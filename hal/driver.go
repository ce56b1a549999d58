// Package hal is the hardware-abstraction core of the command station.
// It maps the flat virtual-pin address space onto whichever device drivers
// are installed, and routes every read/write/configure/tick call to the
// driver owning the addressed pin.  Client subsystems (turnout, sensor and
// output managers) use the Registry dispatch surface exclusively and never
// hold a driver reference across calls.
package hal

import (
	"fmt"

	"stationhal-go/diag"
	"stationhal-go/types"
)

// Driver is one polymorphic unit owning a contiguous range of virtual
// pins.  Implementations embed Base for the ownership arithmetic and the
// no-op defaults, and override only the operations they support.
type Driver interface {
	FirstPin() types.VPIN
	PinCount() int

	// Begin performs device initialisation.  It may touch the bus.
	Begin()
	// Configure applies driver-specific parameters to one pin.  It returns
	// false if the parameters are rejected; a rejected call leaves the
	// driver state unchanged.
	Configure(pin types.VPIN, ct types.ConfigType, params []int) bool
	// Write sets the state of one pin.
	Write(pin types.VPIN, value int)
	// Read returns the boolean state of one pin.
	Read(pin types.VPIN) bool
	// Tick is the periodic update hook.  nowMicros is a monotonic
	// microsecond clock; drivers keep their own last-seen timestamp and
	// work from the delta, never from call frequency.  Tick must not
	// issue bus transactions.
	Tick(nowMicros int64)
	// Describe returns a one-line diagnostic summary.
	Describe() string
	// Deletable reports whether Remove may unlink this driver.
	Deletable() bool
}

// Downstream is the forwarding surface a filter driver writes through.
// A downstream write resolves only among drivers installed earlier than
// the issuing one, so a filter can expose pin P while the physical
// actuation of the same P lands on an older driver.
type Downstream interface {
	WriteDownstream(from Driver, pin types.VPIN, value int)
}

// DownstreamUser is implemented by filter drivers that need the
// forwarding path.  The Registry attaches itself when the driver is
// installed, after checking that a downstream owner for the driver's pin
// range already exists.
type DownstreamUser interface {
	Driver
	AttachDownstream(dw Downstream)
}

// Base supplies the common driver fields and no-op defaults.  Drivers
// embed it and override the operations they implement.
type Base struct {
	First types.VPIN
	NPins int

	log *diag.Logger
}

func (b *Base) FirstPin() types.VPIN { return b.First }
func (b *Base) PinCount() int        { return b.NPins }

// Owns reports whether vpin falls inside this driver's claimed block.
func (b *Base) Owns(vpin types.VPIN) bool {
	return vpin >= b.First && vpin < b.First+types.VPIN(b.NPins)
}

// PinIndex returns the zero-based offset of vpin within the block.
func (b *Base) PinIndex(vpin types.VPIN) int { return int(vpin - b.First) }

func (b *Base) Begin()                                          {}
func (b *Base) Configure(types.VPIN, types.ConfigType, []int) bool { return false }
func (b *Base) Write(types.VPIN, int)                           {}
func (b *Base) Read(types.VPIN) bool                            { return false }
func (b *Base) Tick(int64)                                      {}
func (b *Base) Deletable() bool                                 { return false }

func (b *Base) Describe() string {
	return fmt.Sprintf("Unknown device VPins:%d-%d", b.First, b.First+types.VPIN(b.NPins)-1)
}

// SetDiag installs the driver's diagnostic sink.
func (b *Base) SetDiag(lg *diag.Logger) { b.log = lg }

// AdoptDiag installs lg only if the driver was not built with its own
// sink.  The Registry calls this on Add so late-bound drivers inherit
// the registry's sink.
func (b *Base) AdoptDiag(lg *diag.Logger) {
	if b.log == nil {
		b.log = lg
	}
}

// Logf emits one diagnostic line.  Safe with no sink attached.
func (b *Base) Logf(format string, args ...any) { b.log.Logf(format, args...) }
