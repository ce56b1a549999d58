package errcode

import "errors"

// Code is a stable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Dispatch
	UnknownPin   Code = "unknown_pin"
	NotDeletable Code = "not_deletable"
	NoDownstream Code = "no_downstream"

	// Configuration / provisioning
	InvalidParams     Code = "invalid_params"
	UnknownDeviceType Code = "unknown_device_type"
	Overlap           Code = "vpin_overlap"
	Rejected          Code = "config_rejected"

	// Transport
	BusError    Code = "bus_error"
	ShortRead   Code = "short_read"
	ChipAbsent  Code = "chip_absent"
	PortClosed  Code = "port_closed"
	Unsupported Code = "unsupported"

	Error Code = "error" // generic fallback
)

// E is an optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, walking the wrap chain, defaulting
// to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for e := err; e != nil; e = errors.Unwrap(e) {
		if c, ok := e.(Code); ok {
			return c
		}
		if x, ok := e.(coder); ok {
			return x.Code()
		}
	}
	return Error
}
