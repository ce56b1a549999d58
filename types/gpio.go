package types

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is one directly-attached microcontroller pin.  Implementations
// are supplied by the platform layer; the HAL only drives this interface.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies GPIO pins by the platform's numbering scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}
