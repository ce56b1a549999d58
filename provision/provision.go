// Package provision turns a line-oriented provisioning script into an
// installed driver chain.  One line per device, tokenised shell-style so
// quoting and inline comments behave as expected:
//
//	# base hardware
//	gpio 2 48
//	pca9685 100 16 0x40
//	mcp23017 164 16 0x20
//	pcf8574 228 8 0x23
//	dccacc 300 8 17
//	servo 100 450 110 4 0
//
// Numeric fields accept decimal or 0x hex.  Device blocks must not
// overlap except for servo lines, which deliberately stack a filter on a
// PWM pin.  Provisioning is bootstrap configuration: it runs once at
// start-up against an empty registry.
package provision

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"stationhal-go/errcode"
	"stationhal-go/hal"
	"stationhal-go/hal/devices/analogue"
	"stationhal-go/hal/devices/dccacc"
	"stationhal-go/hal/devices/gpio"
	"stationhal-go/hal/devices/mcp23008"
	"stationhal-go/hal/devices/mcp23017"
	"stationhal-go/hal/devices/pca9685"
	"stationhal-go/hal/devices/pcf8574"
	"stationhal-go/i2cmgr"
	"stationhal-go/types"
)

// Deps are the platform collaborators drivers are built against.  Any of
// them may be nil when the script uses no device needing it; a line that
// does need a missing dependency fails with a clear error instead.
type Deps struct {
	Pins    types.PinFactory
	Bus     *i2cmgr.Manager
	Packets dccacc.PacketSink
}

type block struct {
	first types.VPIN
	count int
}

func (b block) overlaps(o block) bool {
	return b.first < o.first+types.VPIN(o.count) && o.first < b.first+types.VPIN(b.count)
}

// Apply parses the script and installs every device into reg.  The first
// faulty line aborts with its line number; devices installed before the
// fault remain installed.
func Apply(reg *hal.Registry, script io.Reader, deps Deps) error {
	var claimed []block
	sc := bufio.NewScanner(script)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyLine(reg, line, deps, &claimed); err != nil {
			return fmt.Errorf("provision line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}

func applyLine(reg *hal.Registry, line string, deps Deps, claimed *[]block) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: err.Error(), Err: err}
	}
	if len(tokens) == 0 {
		return nil
	}
	kind, args := tokens[0], tokens[1:]

	switch kind {
	case "gpio":
		first, count, err := firstCount(args, 2)
		if err != nil {
			return err
		}
		if deps.Pins == nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: "gpio needs a pin factory"}
		}
		if err := claim(claimed, first, count); err != nil {
			return err
		}
		return reg.Add(gpio.New(first, count, deps.Pins, reg.Diag()))

	case "pca9685", "mcp23008", "mcp23017", "pcf8574":
		first, count, err := firstCount(args, 3)
		if err != nil {
			return err
		}
		addr, err := num(args[2])
		if err != nil {
			return err
		}
		if deps.Bus == nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: kind + " needs an I2C bus"}
		}
		if err := claim(claimed, first, count); err != nil {
			return err
		}
		var d hal.Driver
		switch kind {
		case "pca9685":
			d = pca9685.New(first, count, uint8(addr), deps.Bus, reg, reg.Diag())
		case "mcp23008":
			d = mcp23008.New(first, count, uint8(addr), deps.Bus, reg.Diag())
		case "mcp23017":
			d = mcp23017.New(first, count, uint8(addr), deps.Bus, reg.Diag())
		case "pcf8574":
			d = pcf8574.New(first, count, uint8(addr), deps.Bus, reg.Diag())
		}
		return reg.Add(d)

	case "dccacc":
		first, count, err := firstCount(args, 3)
		if err != nil {
			return err
		}
		linear, err := num(args[2])
		if err != nil {
			return err
		}
		if deps.Packets == nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: "dccacc needs a packet sink"}
		}
		if err := claim(claimed, first, count); err != nil {
			return err
		}
		return reg.Add(dccacc.NewLinear(first, count, linear, deps.Packets, reg.Diag()))

	case "servo":
		// servo <pin> <active> <inactive> <profile> <initial>
		// Stacks a filter on an existing PWM pin; no block claim.
		if len(args) != 5 {
			return &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: "servo wants 5 arguments"}
		}
		vals := make([]int, 5)
		for i, a := range args {
			v, err := num(a)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		return analogue.Create(reg, types.VPIN(vals[0]), vals[1], vals[2], vals[3], vals[4])

	default:
		return &errcode.E{C: errcode.UnknownDeviceType, Op: "provision", Msg: kind}
	}
}

// firstCount parses the leading <first> <count> pair and checks arity.
func firstCount(args []string, want int) (types.VPIN, int, error) {
	if len(args) != want {
		return 0, 0, &errcode.E{C: errcode.InvalidParams, Op: "provision",
			Msg: fmt.Sprintf("want %d arguments, have %d", want, len(args))}
	}
	first, err := num(args[0])
	if err != nil {
		return 0, 0, err
	}
	count, err := num(args[1])
	if err != nil {
		return 0, 0, err
	}
	// Bounds are checked before the VPIN conversion so an oversized value
	// cannot wrap into range.
	if first < 0 || count < 1 || first+count-1 > int(types.VPINMax) {
		return 0, 0, &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: "bad vpin block"}
	}
	return types.VPIN(first), count, nil
}

// claim records a vpin block, rejecting overlap with any earlier one.
// Overlap between independent drivers would make dispatch order-dependent
// in ways no provisioning author intends.
func claim(claimed *[]block, first types.VPIN, count int) error {
	b := block{first: first, count: count}
	for _, o := range *claimed {
		if b.overlaps(o) {
			return &errcode.E{C: errcode.Overlap, Op: "provision",
				Msg: fmt.Sprintf("vpins %d-%d already claimed", first, int(first)+count-1)}
		}
	}
	*claimed = append(*claimed, b)
	return nil
}

func num(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "provision", Msg: "bad number " + s, Err: err}
	}
	return int(v), nil
}
