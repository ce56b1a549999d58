// Package serialdev bridges a block of vpins over a byte stream to an
// external microcontroller.  Writes go out as "#W<pin>,<value>#" command
// lines; the remote end pushes "#N<pin>,<value>#" notifications which the
// periodic tick parses incrementally, so a read serves the last notified
// value without ever blocking on the wire.
package serialdev

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/types"
)

// Port is the byte stream to the remote end.  Read must return promptly
// when no data is pending (a zero count or timeout error, not a block);
// ports from Open behave that way.
type Port interface {
	io.ReadWriter
}

// Open opens a hardware serial port suitable for this driver: a short
// read timeout keeps the tick path non-blocking.
func Open(name string, baud int) (Port, error) {
	return serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: time.Millisecond,
	})
}

type parseState uint8

const (
	stateIdle  parseState = iota // waiting for '#'
	stateCmd                     // expecting 'N'
	statePin                     // accumulating pin digits
	stateValue                   // accumulating value digits
)

type Driver struct {
	hal.Base

	port   Port
	values []int

	// incoming notification parser
	st      parseState
	inPin   int
	inValue int
	readBuf [32]byte
}

// New claims vpins [firstPin, firstPin+nPins) bridged over port.
func New(firstPin types.VPIN, nPins int, port Port, lg *diag.Logger) *Driver {
	d := &Driver{port: port, values: make([]int, nPins)}
	d.First = firstPin
	d.NPins = nPins
	d.SetDiag(lg)
	return d
}

// Begin announces ourselves so the remote end can resynchronise.
func (d *Driver) Begin() {
	io.WriteString(d.port, "###")
}

func (d *Driver) Write(vpin types.VPIN, value int) {
	fmt.Fprintf(d.port, "#W%d,%d#\n", d.PinIndex(vpin), value)
}

// Read serves the last value notified by the remote end for this pin.
func (d *Driver) Read(vpin types.VPIN) bool {
	return d.values[d.PinIndex(vpin)] != 0
}

// Tick drains whatever bytes have arrived and feeds them through the
// notification parser.  No waiting: a quiet port costs one short read.
func (d *Driver) Tick(nowMicros int64) {
	n, err := d.port.Read(d.readBuf[:])
	if n <= 0 || (err != nil && err != io.EOF) {
		return
	}
	for _, c := range d.readBuf[:n] {
		d.feed(c)
	}
}

func (d *Driver) feed(c byte) {
	switch d.st {
	case stateIdle:
		if c == '#' {
			d.st = stateCmd
		}
	case stateCmd:
		if c == 'N' {
			d.inPin, d.inValue = 0, 0
			d.st = statePin
		} else {
			d.st = stateIdle
		}
	case statePin:
		switch {
		case c >= '0' && c <= '9':
			d.inPin = d.inPin*10 + int(c-'0')
		case c == ',':
			d.st = stateValue
		default:
			d.st = stateIdle
		}
	case stateValue:
		switch {
		case c >= '0' && c <= '9':
			d.inValue = d.inValue*10 + int(c-'0')
		case c == '#':
			if d.inPin >= 0 && d.inPin < len(d.values) {
				d.values[d.inPin] = d.inValue
			}
			d.st = stateIdle
		default:
			d.st = stateIdle
		}
	}
}

func (d *Driver) Describe() string {
	return fmt.Sprintf("ExampleSerial VPins:%d-%d", d.First, d.First+types.VPIN(d.NPins)-1)
}
