// haldemo provisions a HAL from a script and exercises it against a
// simulated I2C bus, so the dispatch and driver behaviour can be watched
// on a workstation without any hardware attached.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"stationhal-go/diag"
	"stationhal-go/hal"
	"stationhal-go/i2cmgr"
	"stationhal-go/provision"
	"stationhal-go/types"
)

var (
	script   = flag.String("script", "", "Provisioning script path (default: built-in demo layout)")
	ticks    = flag.Int("ticks", 50, "Loop iterations to run")
	interval = flag.Duration("interval", 20*time.Millisecond, "Loop tick interval")
)

const demoScript = `
# demo layout: direct pins, one PWM module, one 16-bit expander,
# and a servo filter over PWM channel 0
gpio 2 48
pca9685 100 16 0x40
mcp23017 164 16 0x20
dccacc 300 8 17
servo 100 450 110 1 0
`

// simBus acknowledges every transaction and feeds back a rolling pattern
// on reads, standing in for a bus full of well-behaved chips.
type simBus struct {
	n byte
}

func (b *simBus) Tx(addr uint16, w, r []byte) error {
	for i := range r {
		b.n++
		r[i] = b.n
	}
	return nil
}

// simPin is a direct GPIO stand-in that remembers its level.
type simPin struct {
	num   int
	level bool
}

func (p *simPin) ConfigureInput(types.Pull) error    { return nil }
func (p *simPin) ConfigureOutput(initial bool) error { p.level = initial; return nil }
func (p *simPin) Set(level bool)                     { p.level = level }
func (p *simPin) Get() bool                          { return p.level }
func (p *simPin) Number() int                        { return p.num }

type simPins map[int]*simPin

func (s simPins) ByNumber(n int) (types.GPIOPin, bool) {
	p, ok := s[n]
	if !ok {
		p = &simPin{num: n}
		s[n] = p
	}
	return p, true
}

// printSink logs accessory packets instead of cutting track power about it.
type printSink struct{}

func (printSink) SetAccessory(address, subaddress int, active bool) {
	fmt.Printf("DCC packet: addr %d sub %d active %v\n", address, subaddress, active)
}

func main() {
	flag.Parse()

	lg := diag.New(os.Stdout)
	reg := hal.New(lg)
	deps := provision.Deps{
		Pins:    simPins{},
		Bus:     i2cmgr.New(&simBus{}),
		Packets: printSink{},
	}

	src := demoScript
	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "haldemo: %v\n", err)
			os.Exit(1)
		}
		src = string(data)
	}
	if err := provision.Apply(reg, strings.NewReader(src), deps); err != nil {
		fmt.Fprintf(os.Stderr, "haldemo: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- installed devices ---")
	reg.DescribeAll(os.Stdout)

	// Poke some pins, then let the loop animate the servo.
	reg.Write(3, 1)
	reg.Write(300, 1)
	reg.Write(100, 1) // starts the servo sweep
	fmt.Printf("read vpin 164: %v\n", reg.Read(164))

	start := time.Now()
	for i := 0; i < *ticks; i++ {
		reg.Tick(time.Since(start).Microseconds())
		time.Sleep(*interval)
	}
}
