package mcp23008

import (
	"strings"
	"testing"

	"stationhal-go/diag"
	"stationhal-go/errcode"
	"stationhal-go/i2cmgr"
	"stationhal-go/types"
)

type txRec struct {
	addr uint16
	w    []byte
	rlen int
}

type fakeBus struct {
	txs   []txRec
	gpio  byte
	fail  bool
	reads int
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.txs = append(b.txs, txRec{addr, append([]byte(nil), w...), len(r)})
	if b.fail {
		return errcode.BusError
	}
	if len(r) > 0 {
		b.reads++
		if len(w) == 1 && w[0] == 0x09 {
			r[0] = b.gpio
		}
	}
	return nil
}

// lastReg returns the value most recently written to reg at addr.
func (b *fakeBus) lastReg(addr uint16, reg byte) (byte, bool) {
	for i := len(b.txs) - 1; i >= 0; i-- {
		tx := b.txs[i]
		if tx.addr == addr && tx.rlen == 0 && len(tx.w) == 2 && tx.w[0] == reg {
			return tx.w[1], true
		}
	}
	return 0, false
}

func begun(gpio byte) (*Driver, *fakeBus) {
	bus := &fakeBus{gpio: gpio}
	d := New(164, 16, 0x20, i2cmgr.New(bus), nil)
	d.Begin()
	return d, bus
}

func TestBeginProgramsBothModules(t *testing.T) {
	var out strings.Builder
	bus := &fakeBus{}
	d := New(164, 16, 0x20, i2cmgr.New(bus), diag.New(&out))
	d.Begin()

	for _, addr := range []uint16{0x20, 0x21} {
		if v, ok := bus.lastReg(addr, 0x05); !ok || v != 0x04 {
			t.Fatalf("addr %#x IOCON = %#x,%v, want 0x04", addr, v, ok)
		}
		// All pins input at power-on: IODIR all ones, GPIO zero.
		if v, _ := bus.lastReg(addr, 0x00); v != 0xFF {
			t.Fatalf("addr %#x IODIR = %#x, want 0xFF", addr, v)
		}
		if v, _ := bus.lastReg(addr, 0x09); v != 0x00 {
			t.Fatalf("addr %#x GPIO = %#x, want 0", addr, v)
		}
	}
	if strings.Count(out.String(), "MCP23008 configured") != 2 {
		t.Fatalf("diagnostics:\n%s", out.String())
	}
}

func TestWriteFlipsDirectionOnce(t *testing.T) {
	d, bus := begun(0)
	bus.txs = nil

	d.Write(166, 1) // module 0 bit 2
	if v, _ := bus.lastReg(0x20, 0x00); v != 0xFB {
		t.Fatalf("IODIR = %#x, want 0xFB (bit 2 output)", v)
	}
	if v, _ := bus.lastReg(0x20, 0x09); v != 0x04 {
		t.Fatalf("GPIO = %#x, want 0x04", v)
	}
	n := len(bus.txs)
	d.Write(166, 0)
	// Only the GPIO word travels on the repeat write.
	if len(bus.txs) != n+1 {
		t.Fatalf("repeat write issued %d transactions, want 1", len(bus.txs)-n)
	}
	if v, _ := bus.lastReg(0x20, 0x09); v != 0x00 {
		t.Fatalf("GPIO = %#x, want 0", v)
	}
}

func TestReadSecondModule(t *testing.T) {
	d, bus := begun(0x80)
	if !d.Read(179) { // module 1 bit 7
		t.Fatal("read: want true")
	}
	// The refresh targeted the second chip.
	last := bus.txs[len(bus.txs)-1]
	if last.addr != 0x21 || last.rlen != 1 {
		t.Fatalf("refresh tx = %+v", last)
	}
}

func TestConfigureInputPullup(t *testing.T) {
	d, bus := begun(0)
	if !d.Configure(165, types.ConfigureInput, []int{1}) {
		t.Fatal("configure rejected")
	}
	if v, _ := bus.lastReg(0x20, 0x06); v != 0x02 {
		t.Fatalf("GPPU = %#x, want 0x02", v)
	}
	if d.Configure(165, types.ConfigureOutput, []int{1}) {
		t.Fatal("output configure must be rejected")
	}
}

func TestBusFailureReadsZero(t *testing.T) {
	d, bus := begun(0xFF)
	bus.fail = true
	for pin := types.VPIN(164); pin < 172; pin++ {
		if d.Read(pin) {
			t.Fatalf("vpin %d true after bus failure", pin)
		}
	}
}

func TestDescribePerModule(t *testing.T) {
	d, _ := begun(0)
	want := "MCP23008 VPins:164-171 I2C:x20\nMCP23008 VPins:172-179 I2C:x21"
	if got := d.Describe(); got != want {
		t.Fatalf("describe = %q, want %q", got, want)
	}
}
