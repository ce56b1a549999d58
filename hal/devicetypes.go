package hal

import (
	"fmt"
	"sync"

	"stationhal-go/diag"
	"stationhal-go/errcode"
	"stationhal-go/types"
)

// DeviceCtor builds a bare driver instance claiming pins from firstPin.
// Configuration is applied separately through Configure, so a constructor
// needs no compile-time knowledge of its parameter shape.
type DeviceCtor func(firstPin types.VPIN) Driver

var (
	typeMu      sync.RWMutex
	deviceTypes = map[int]DeviceCtor{}
)

// RegisterDeviceType installs a constructor for an integer device-type
// tag.  The tag chain is append-only for process lifetime; duplicate
// registration is a start-up programming error and panics.
func RegisterDeviceType(tag int, ctor DeviceCtor) {
	typeMu.Lock()
	defer typeMu.Unlock()
	if ctor == nil {
		panic("hal: nil constructor for device type")
	}
	if _, exists := deviceTypes[tag]; exists {
		panic(fmt.Sprintf("hal: device type %#x already registered", tag))
	}
	deviceTypes[tag] = ctor
}

func lookupDeviceType(tag int) (DeviceCtor, bool) {
	typeMu.RLock()
	defer typeMu.RUnlock()
	ctor, ok := deviceTypes[tag]
	return ctor, ok
}

// CreateDevice instantiates a driver generically by its numeric type tag,
// applies the supplied configuration, and installs it, replacing any
// deletable driver already on firstPin.  This is the path
// dynamic (persisted) configuration uses, where the device class is only
// known as a number.  Nothing is installed when the tag is unknown or the
// driver rejects the parameters.
func (r *Registry) CreateDevice(tag int, firstPin types.VPIN, ct types.ConfigType, params []int) (Driver, error) {
	ctor, ok := lookupDeviceType(tag)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownDeviceType, Op: "hal.CreateDevice",
			Msg: fmt.Sprintf("tag %#x", tag)}
	}
	// Re-creation replaces: a deletable driver already on the pin is
	// unlinked so the fresh instance does not stack on top of it.
	r.Remove(firstPin)
	d := ctor(firstPin)
	if du, ok := d.(interface{ AdoptDiag(*diag.Logger) }); ok {
		du.AdoptDiag(r.log)
	}
	// Attach forwarding before configuration: a filter's Configure may
	// push an initial position downstream.
	if du, ok := d.(DownstreamUser); ok {
		first := d.FirstPin()
		for i := 0; i < d.PinCount(); i++ {
			if !r.Exists(first + types.VPIN(i)) {
				return nil, &errcode.E{C: errcode.NoDownstream, Op: "hal.CreateDevice"}
			}
		}
		du.AttachDownstream(r)
	}
	if !d.Configure(firstPin, ct, params) {
		return nil, &errcode.E{C: errcode.Rejected, Op: "hal.CreateDevice"}
	}
	if err := r.Add(d); err != nil {
		return nil, err
	}
	return d, nil
}
