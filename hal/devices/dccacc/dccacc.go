// Package dccacc maps a block of vpins onto track-side DCC accessory
// decoders.  A write becomes an accessory packet on the rails rather than
// a local I/O transaction; the packet layer is consumed through the
// PacketSink interface so this driver carries no track signalling of its
// own.
package dccacc

import (
	"fmt"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/types"
)

// PacketSink queues one accessory command for transmission.
type PacketSink interface {
	SetAccessory(address, subaddress int, active bool)
}

type Driver struct {
	hal.Base

	sink       PacketSink
	address    int
	subaddress int
}

// New claims vpins [firstPin, firstPin+nPins) mapped onto successive
// subaddresses of the decoder at address/subaddress.
func New(firstPin types.VPIN, nPins int, address, subaddress int, sink PacketSink, lg *diag.Logger) *Driver {
	d := &Driver{sink: sink, address: address, subaddress: subaddress}
	d.First = firstPin
	d.NPins = nPins
	d.SetDiag(lg)
	return d
}

// NewLinear is New with the flat "linear address" numbering many decoder
// vendors print on the box: four subaddresses per decoder address.
func NewLinear(firstPin types.VPIN, nPins int, linearAddress int, sink PacketSink, lg *diag.Logger) *Driver {
	address := (linearAddress - 1) / 4
	subaddress := linearAddress - address*4
	return New(firstPin, nPins, address, subaddress, sink, lg)
}

// Write emits an accessory packet for the decoder output behind vpin.
func (d *Driver) Write(vpin types.VPIN, value int) {
	sub := d.PinIndex(vpin) + d.subaddress
	d.sink.SetAccessory(d.address, sub, value != 0)
}

func (d *Driver) Describe() string {
	return fmt.Sprintf("DCC Addr:%d/%d VPins:%d-%d",
		d.address, d.subaddress, d.First, d.First+types.VPIN(d.NPins)-1)
}
