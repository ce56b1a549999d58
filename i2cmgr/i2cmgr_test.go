package i2cmgr

import (
	"bytes"
	"testing"

	"stationhal-go/errcode"
)

type scriptBus struct {
	txs  []struct{ addr uint16 }
	last []byte
	read []byte
	fail bool

	baud []uint32
}

func (b *scriptBus) Tx(addr uint16, w, r []byte) error {
	b.txs = append(b.txs, struct{ addr uint16 }{addr})
	if b.fail {
		return errcode.BusError
	}
	b.last = append([]byte(nil), w...)
	copy(r, b.read)
	return nil
}

func (b *scriptBus) SetBaudRate(br uint32) error {
	b.baud = append(b.baud, br)
	return nil
}

func TestSlowestClockWins(t *testing.T) {
	bus := &scriptBus{}
	m := New(bus)
	m.SetClock(1_000_000)
	m.SetClock(100_000) // slower chip joins the bus
	m.SetClock(400_000) // faster request must not raise the clock
	if m.ClockHz() != 100_000 {
		t.Fatalf("clock = %d, want 100000", m.ClockHz())
	}
	want := []uint32{1_000_000, 100_000}
	if len(bus.baud) != 2 || bus.baud[0] != want[0] || bus.baud[1] != want[1] {
		t.Fatalf("baud changes = %v, want %v", bus.baud, want)
	}
}

func TestExistsProbe(t *testing.T) {
	bus := &scriptBus{}
	m := New(bus)
	if !m.Exists(0x20) {
		t.Fatal("probe of responsive address failed")
	}
	bus.fail = true
	if m.Exists(0x21) {
		t.Fatal("probe of silent address succeeded")
	}
}

func TestWriteSendsBytes(t *testing.T) {
	bus := &scriptBus{}
	m := New(bus)
	if err := m.Write(0x20, 0x09, 0xAA); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bus.last, []byte{0x09, 0xAA}) {
		t.Fatalf("sent %#x", bus.last)
	}
	bus.fail = true
	if errcode.Of(m.Write(0x20, 0x01)) != errcode.BusError {
		t.Fatal("bus failure not surfaced as BusError")
	}
}

func TestReadLengthContract(t *testing.T) {
	bus := &scriptBus{read: []byte{0x12, 0x34}}
	m := New(bus)
	buf := make([]byte, 2)
	n, err := m.Read(0x20, buf, 0x09)
	if err != nil || n != 2 {
		t.Fatalf("read = (%d, %v), want (2, nil)", n, err)
	}
	if buf[0] != 0x12 || buf[1] != 0x34 {
		t.Fatalf("buf = %#x", buf)
	}
	bus.fail = true
	n, err = m.Read(0x20, buf, 0x09)
	if n != 0 || errcode.Of(err) != errcode.BusError {
		t.Fatalf("failed read = (%d, %v), want (0, BusError)", n, err)
	}
}
