package hal

import (
	"io"
	"strconv"

	"stationhal-go/diag"
	"stationhal-go/errcode"
	"stationhal-go/types"
)

// Registry owns the ordered chain of installed device drivers and routes
// every dispatch call to the correct one.  Index 0 is the most recently
// installed driver: direct calls prefer the newest owner of a pin, while
// downstream writes only ever reach older drivers than the caller, so a
// forwarding cycle cannot form.
//
// The Registry is the exclusive owner of every driver in the chain.  It is
// single-threaded by design; Add and Remove must not be called from inside
// a driver's Write, Read or Tick callback.
type Registry struct {
	chain []Driver
	log   *diag.Logger
}

// New returns an empty registry emitting diagnostics through lg.
func New(lg *diag.Logger) *Registry {
	if lg == nil {
		lg = diag.New(nil)
	}
	return &Registry{log: lg}
}

// Diag exposes the registry's diagnostic sink for collaborators that
// share it (provisioning, drivers built outside the registry).
func (r *Registry) Diag() *diag.Logger { return r.log }

// Add installs d at the head of the chain and runs its initialisation.
// If d declares a downstream dependency, every pin it claims must already
// resolve to an installed driver; installing the filter before its target
// is a provisioning-order error and is rejected rather than left to fail
// silently at write time.
func (r *Registry) Add(d Driver) error {
	if du, ok := d.(interface{ AdoptDiag(*diag.Logger) }); ok {
		du.AdoptDiag(r.log)
	}
	if du, ok := d.(DownstreamUser); ok {
		first := d.FirstPin()
		for i := 0; i < d.PinCount(); i++ {
			if !r.Exists(first + types.VPIN(i)) {
				return &errcode.E{C: errcode.NoDownstream, Op: "hal.Add",
					Msg: "no downstream driver for vpin " + strconv.Itoa(int(first)+i)}
			}
		}
		du.AttachDownstream(r)
	}
	r.chain = append(r.chain, nil)
	copy(r.chain[1:], r.chain)
	r.chain[0] = d
	d.Begin()
	r.log.Logf("HAL: installed %s", d.Describe())
	return nil
}

// owner returns the index of the newest driver owning vpin, or -1.
func (r *Registry) owner(vpin types.VPIN) int {
	for i, d := range r.chain {
		if owns(d, vpin) {
			return i
		}
	}
	return -1
}

func owns(d Driver, vpin types.VPIN) bool {
	return vpin >= d.FirstPin() && vpin < d.FirstPin()+types.VPIN(d.PinCount())
}

// Write sets the state of vpin on the newest owning driver.  An unowned
// pin is a no-op with a diagnostic, never a fault.
func (r *Registry) Write(vpin types.VPIN, value int) {
	i := r.owner(vpin)
	if i < 0 {
		r.log.Logf("HAL: write to unassigned VPin %d", vpin)
		return
	}
	r.chain[i].Write(vpin, value)
}

// Read returns the state of vpin, or false if no driver owns it.
func (r *Registry) Read(vpin types.VPIN) bool {
	i := r.owner(vpin)
	if i < 0 {
		r.log.Logf("HAL: read of unassigned VPin %d", vpin)
		return false
	}
	return r.chain[i].Read(vpin)
}

// Configure applies driver parameters to vpin.  It returns false if the
// pin is unowned or the owning driver rejects the parameters.  The owner
// is resolved before the call so a driver's Configure may legally install
// or replace a filter on its own pin.
func (r *Registry) Configure(vpin types.VPIN, ct types.ConfigType, params []int) bool {
	i := r.owner(vpin)
	if i < 0 {
		r.log.Logf("HAL: configure of unassigned VPin %d", vpin)
		return false
	}
	return r.chain[i].Configure(vpin, ct, params)
}

// WriteDownstream forwards a write issued by from, resolving only among
// drivers installed before from.  The canonical caller is the animated
// analogue driver pushing positions to the PWM driver underneath it.
func (r *Registry) WriteDownstream(from Driver, vpin types.VPIN, value int) {
	start := 0
	for i, d := range r.chain {
		if d == from {
			start = i + 1
			break
		}
	}
	for _, d := range r.chain[start:] {
		if d == from {
			continue
		}
		if owns(d, vpin) {
			d.Write(vpin, value)
			return
		}
	}
	r.log.Logf("HAL: downstream write to VPin %d found no target", vpin)
}

// Exists reports whether any driver owns vpin.
func (r *Registry) Exists(vpin types.VPIN) bool { return r.owner(vpin) >= 0 }

// Remove unlinks the driver owning vpin and releases its slot, if and
// only if the driver reports itself deletable.  Removing a non-deletable
// or unowned pin is a silent no-op: static base drivers must never be
// removable, and re-provisioning must not corrupt the chain.
func (r *Registry) Remove(vpin types.VPIN) {
	i := r.owner(vpin)
	if i < 0 {
		return
	}
	d := r.chain[i]
	if !d.Deletable() {
		return
	}
	r.chain = append(r.chain[:i], r.chain[i+1:]...)
	r.log.Logf("HAL: removed %s", d.Describe())
}

// Tick invokes every driver's periodic-update hook exactly once, in chain
// order, passing the monotonic microsecond timestamp through unchanged.
func (r *Registry) Tick(nowMicros int64) {
	for _, d := range r.chain {
		d.Tick(nowMicros)
	}
}

// DescribeAll writes each driver's self-description to w, newest first.
// It has no side effect on I/O state.
func (r *Registry) DescribeAll(w io.Writer) {
	lg := diag.New(w)
	for _, d := range r.chain {
		lg.Logf("%s", d.Describe())
	}
}

// Len reports the number of installed drivers.
func (r *Registry) Len() int { return len(r.chain) }
