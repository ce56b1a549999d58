package gpio

import (
	"errors"
	"testing"

	"stationhal-go/types"
)

type fakePin struct {
	n          int
	level      bool
	pull       types.Pull
	inputCfgs  int
	outputCfgs int
	sets       int
	failCfgs   int // configure calls to fail before succeeding
}

func (p *fakePin) ConfigureInput(pull types.Pull) error {
	p.inputCfgs++
	if p.failCfgs > 0 {
		p.failCfgs--
		return errors.New("pin busy")
	}
	p.pull = pull
	return nil
}

func (p *fakePin) ConfigureOutput(initial bool) error {
	p.outputCfgs++
	if p.failCfgs > 0 {
		p.failCfgs--
		return errors.New("pin busy")
	}
	p.level = initial
	return nil
}

func (p *fakePin) Set(level bool) { p.sets++; p.level = level }
func (p *fakePin) Get() bool      { return p.level }
func (p *fakePin) Number() int    { return p.n }

type fakePins map[int]*fakePin

func (f fakePins) ByNumber(n int) (types.GPIOPin, bool) {
	p, ok := f[n]
	return p, ok
}

func TestWriteProgramsOutputOnce(t *testing.T) {
	pin := &fakePin{n: 5}
	d := New(2, 10, fakePins{5: pin}, nil)

	d.Write(5, 1)
	if pin.outputCfgs != 1 || !pin.level {
		t.Fatalf("after first write: cfgs=%d level=%v", pin.outputCfgs, pin.level)
	}
	d.Write(5, 0)
	d.Write(5, 1)
	if pin.outputCfgs != 1 || pin.sets != 2 || !pin.level {
		t.Fatalf("cfgs=%d sets=%d level=%v, want 1/2/true", pin.outputCfgs, pin.sets, pin.level)
	}
}

func TestReadSwitchesToInput(t *testing.T) {
	pin := &fakePin{n: 5, level: true}
	d := New(2, 10, fakePins{5: pin}, nil)

	d.Write(5, 1)
	if !d.Read(5) {
		t.Fatal("read: want true")
	}
	if pin.inputCfgs != 1 || pin.pull != types.PullUp {
		t.Fatalf("inputCfgs=%d pull=%v, want 1/PullUp", pin.inputCfgs, pin.pull)
	}
	// Repeat reads stay in input mode.
	d.Read(5)
	if pin.inputCfgs != 1 {
		t.Fatalf("inputCfgs = %d after repeat read", pin.inputCfgs)
	}
	// Writing again reprograms the direction.
	d.Write(5, 0)
	if pin.outputCfgs != 2 {
		t.Fatalf("outputCfgs = %d, want 2", pin.outputCfgs)
	}
}

func TestConfigureInputPull(t *testing.T) {
	pin := &fakePin{n: 5}
	d := New(2, 10, fakePins{5: pin}, nil)

	d.Read(5)
	if pin.pull != types.PullUp {
		t.Fatalf("default pull = %v, want PullUp", pin.pull)
	}
	if !d.Configure(5, types.ConfigureInput, []int{0}) {
		t.Fatal("configure rejected")
	}
	d.Read(5)
	if pin.inputCfgs != 2 || pin.pull != types.PullNone {
		t.Fatalf("inputCfgs=%d pull=%v, want 2/PullNone", pin.inputCfgs, pin.pull)
	}
	if d.Configure(5, types.ConfigureServo, []int{1, 2, 3, 4}) {
		t.Fatal("servo configure accepted")
	}
}

func TestFailedConfigureRetries(t *testing.T) {
	pin := &fakePin{n: 5, failCfgs: 1}
	d := New(2, 10, fakePins{5: pin}, nil)

	d.Write(5, 1)
	if pin.level {
		t.Fatal("level set despite failed configure")
	}
	// The failure must not latch output mode: the next write reconfigures
	// instead of calling Set on an unconfigured pin.
	d.Write(5, 1)
	if pin.outputCfgs != 2 || pin.sets != 0 || !pin.level {
		t.Fatalf("cfgs=%d sets=%d level=%v, want 2/0/true", pin.outputCfgs, pin.sets, pin.level)
	}

	pin.failCfgs = 1
	if d.Read(5) {
		t.Fatal("read succeeded despite failed configure")
	}
	if !d.Read(5) {
		t.Fatal("retried read: want true")
	}
	if pin.inputCfgs != 2 {
		t.Fatalf("inputCfgs = %d, want 2", pin.inputCfgs)
	}
}

func TestMissingPlatformPin(t *testing.T) {
	d := New(2, 10, fakePins{}, nil)
	d.Write(7, 1)
	if d.Read(7) {
		t.Fatal("read of missing pin: want false")
	}
	if !d.Owns(7) {
		t.Fatal("vpin 7 must still be owned")
	}
	if d.Deletable() {
		t.Fatal("gpio driver must not be deletable")
	}
}
