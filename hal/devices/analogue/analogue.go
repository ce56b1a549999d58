// Package analogue animates a value over time without blocking: it
// presents one logical on/off vpin and converts writes of 1 and 0 into a
// profiled sweep between an active and an inactive position on whatever
// driver sits underneath the same vpin: a PWM servo channel, a variable
// brightness LED, anything positional.  Every position change travels
// through the registry's downstream path, so this driver must be
// installed after (newer than) the driver it actuates.
package analogue

import (
	"fmt"

	"stationhal-go/diag"
	"stationhal-go/errcode"
	"stationhal-go/hal"
	"stationhal-go/types"
	"stationhal-go/x/mathx"
)

// TypeTag is the numeric device-type code for dynamic creation.
const TypeTag = 0x0DAC

// PositionMax is the largest drivable position (full PWM mark).
const PositionMax = 4095

const (
	// settleSteps is the grace window after a sweep completes, letting
	// the physical actuator catch up before the drive is cut.
	settleSteps = 5
	// refreshMicros gates animation ticks to the 20ms pulse period of
	// the PWM driver underneath; stepping faster is wasted traffic.
	refreshMicros = 20_000
)

// bounceProfile is the percentage sweep for the Bounce profile, tuned for
// semaphore arms and turnouts with a bit of spring.  It is symmetrical,
// so the fall bounces like the rise.
var bounceProfile = [30]uint8{
	2, 3, 7, 13, 33, 50, 83, 100, 83, 75, 70, 65, 60, 60, 65,
	74, 84, 100, 83, 75, 70, 70, 72, 75, 80, 87, 92, 97, 100, 100,
}

type phase uint8

const (
	phaseUnset phase = iota
	phaseIdle
	phaseMoving
	phaseSettling
)

type Driver struct {
	hal.Base

	dw hal.Downstream

	active   int // position for logical 1
	inactive int // position for logical 0
	profile  types.Profile

	target     bool
	current    int
	from, to   int
	step       int
	steps      int
	settleLeft int
	phase      phase

	lastRefresh int64
}

// New returns an unconfigured driver claiming the single vpin.  Positions
// and profile arrive through Configure.
func New(vpin types.VPIN, lg *diag.Logger) *Driver {
	d := &Driver{}
	d.First = vpin
	d.NPins = 1
	d.SetDiag(lg)
	return d
}

// AttachDownstream wires the forwarding path.  The registry calls this on
// install after verifying an older driver owns the vpin.
func (d *Driver) AttachDownstream(dw hal.Downstream) { d.dw = dw }

// Deletable: turnout-driven instances are destroyed and recreated on
// reconfiguration.
func (d *Driver) Deletable() bool { return true }

// Configure accepts exactly [active, inactive, profile, initialState].
// A rejected call leaves the driver untouched.  On success the initial
// position is pushed downstream at once and the driver enters its settle
// window, so an actuator parked mid-travel is driven to a known end and
// then de-energised.
func (d *Driver) Configure(vpin types.VPIN, ct types.ConfigType, params []int) bool {
	if ct != types.ConfigureServo || len(params) != 4 {
		return false
	}
	active, inactive := params[0], params[1]
	profile := types.Profile(params[2])
	if active < 0 || active > PositionMax || inactive < 0 || inactive > PositionMax {
		return false
	}
	if !profile.Valid() {
		return false
	}
	d.active, d.inactive, d.profile = active, inactive, profile
	d.target = params[3] != 0
	d.current = d.boundary(d.target)
	d.from, d.to = d.current, d.current
	d.push(d.current)
	d.step, d.steps = 0, 0
	d.settleLeft = settleSteps
	d.phase = phaseSettling
	return true
}

// Write sets the logical state.  The first write after creation jumps
// straight to the requested boundary; later writes that change the state
// start a profiled sweep from the current, possibly mid-flight, position,
// so a superseded animation continues without a discontinuous jump.
func (d *Driver) Write(vpin types.VPIN, value int) {
	b := value != 0
	if d.phase == phaseUnset {
		d.target = b
		d.current = d.boundary(b)
		d.from, d.to = d.current, d.current
		d.push(d.current)
		d.phase = phaseIdle
		return
	}
	if b == d.target {
		return
	}
	d.target = b
	d.steps = d.profile.Steps(len(bounceProfile))
	if d.steps == 0 {
		d.profile = types.Fast
		d.steps = d.profile.Steps(len(bounceProfile))
	}
	d.step = 0
	d.from = d.current
	d.to = d.boundary(b)
	d.phase = phaseMoving
}

// Read reports the logical target state.
func (d *Driver) Read(vpin types.VPIN) bool { return d.target }

// Tick advances the animation, no more often than the 20ms refresh gate.
func (d *Driver) Tick(nowMicros int64) {
	if d.phase != phaseMoving && d.phase != phaseSettling {
		return
	}
	if nowMicros-d.lastRefresh < refreshMicros {
		return
	}
	d.lastRefresh = nowMicros
	d.advance()
}

func (d *Driver) advance() {
	switch d.phase {
	case phaseMoving:
		d.step++
		if d.profile == types.Bounce {
			d.current = mathx.Map(int(bounceProfile[d.step-1]), 0, 100, d.from, d.to)
		} else {
			d.current = mathx.Map(d.step, 0, d.steps, d.from, d.to)
		}
		d.push(d.current)
		if d.step >= d.steps {
			d.settleLeft = settleSteps
			d.phase = phaseSettling
		}
	case phaseSettling:
		d.settleLeft--
		if d.settleLeft > 0 {
			return
		}
		// Cut the drive to stop servo hum, unless the resting position
		// is an extreme the channel must keep holding.
		if d.current != 0 && d.current != PositionMax {
			d.push(0)
		}
		d.phase = phaseIdle
	}
}

func (d *Driver) boundary(b bool) int {
	if b {
		return d.active
	}
	return d.inactive
}

func (d *Driver) push(value int) {
	if d.dw == nil {
		return
	}
	d.dw.WriteDownstream(d, d.First, value)
}

func (d *Driver) Describe() string {
	return fmt.Sprintf("Analogue VPin:%d Range:%d,%d Profile:%s",
		d.First, d.active, d.inactive, d.profile)
}

// Create replaces any existing deletable driver on vpin with a freshly
// configured analogue filter and installs it.  This is the entry point
// the PWM driver's servo Configure uses.
func Create(reg *hal.Registry, vpin types.VPIN, active, inactive, profile, initialState int) error {
	reg.Remove(vpin)
	d := New(vpin, reg.Diag())
	d.AttachDownstream(reg)
	if !d.Configure(vpin, types.ConfigureServo, []int{active, inactive, profile, initialState}) {
		return &errcode.E{C: errcode.Rejected, Op: "analogue.Create"}
	}
	return reg.Add(d)
}

func init() {
	hal.RegisterDeviceType(TypeTag, func(vpin types.VPIN) hal.Driver {
		return New(vpin, nil)
	})
}
