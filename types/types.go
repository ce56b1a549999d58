// Package types holds the contract types shared between the HAL core and
// its device drivers: the virtual pin address space, configuration call
// shapes, and motion profiles for animated outputs.
package types

// VPIN is a logical address in the unified I/O namespace.  Every installed
// driver claims a contiguous block of VPINs; clients address hardware only
// through VPIN numbers and never see the backing driver.
type VPIN uint16

const (
	// VPINMax is the highest assignable virtual pin.
	VPINMax VPIN = 65533
	// VPINNone marks "no pin assigned".
	VPINNone VPIN = 65535
)

// ConfigType selects which aspect of a pin a Configure call addresses.
// Drivers accept the config types they understand and reject the rest.
type ConfigType uint8

const (
	ConfigureInput  ConfigType = iota + 1 // params: [pullup 0|1]
	ConfigureOutput                       // params: [initial 0|1]
	ConfigureServo                        // params: [active, inactive, profile, initialState]
)

// Profile names a step-count/interpolation strategy for animated outputs.
type Profile uint8

const (
	Instant Profile = 0 // single step, no animation
	Fast    Profile = 1 // ~500ms end-to-end
	Medium  Profile = 2 // ~1s end-to-end
	Slow    Profile = 3 // ~2s end-to-end
	Bounce  Profile = 4 // percentage table, for semaphores with a bit of bounce
)

// Steps returns the number of animation steps the profile takes, or 0 for
// an unknown profile value.
func (p Profile) Steps(bounceLen int) int {
	switch p {
	case Instant:
		return 1
	case Fast:
		return 10
	case Medium:
		return 20
	case Slow:
		return 40
	case Bounce:
		return bounceLen
	}
	return 0
}

// Valid reports whether p is one of the named profiles.
func (p Profile) Valid() bool { return p <= Bounce }

func (p Profile) String() string {
	switch p {
	case Instant:
		return "instant"
	case Fast:
		return "fast"
	case Medium:
		return "medium"
	case Slow:
		return "slow"
	case Bounce:
		return "bounce"
	}
	return "unknown"
}
