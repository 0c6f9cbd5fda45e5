// Package sim is a software model of the hardware timer/PWM port, used by
// the test suite and by headless runs without tile hardware.
package sim

import (
	"fmt"
	"sync"

	"github.com/hexira/facetile/internal/pixel"
)

// Port models the board: six anode lines, three double-buffered compare
// registers, the boost-sink line and the timer overflow flag. Compare
// writes land in the pending bank and only move to the latched bank at a
// cycle boundary (Cycle), mirroring the hardware register buffering.
//
// Every line transition is appended to an ordered trace so tests can
// assert sequencing, not just final state.
type Port struct {
	// cycleMu is held for the whole of a Cycle (latch plus tick) and by
	// StopTimers, so a stop waits out an in-flight cycle.
	cycleMu sync.Mutex

	mu sync.Mutex

	anodes   [pixel.PixelCount]bool
	boost    bool
	pending  [3]pixel.DriveLevel
	latched  [3]pixel.DriveLevel
	running  bool
	overflow bool
	trace    []string
}

func New() *Port {
	p := &Port{}
	for c := range p.pending {
		p.pending[c] = pixel.DriveOff
		p.latched[c] = pixel.DriveOff
	}
	return p
}

func (p *Port) SetAnode(pix int, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anodes[pix] = active
	p.trace = append(p.trace, fmt.Sprintf("anode%d=%v", pix, active))
}

func (p *Port) SetCompare(c pixel.Channel, level pixel.DriveLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[c] = level
	p.trace = append(p.trace, fmt.Sprintf("compare[%s]=%d", c, level))
}

func (p *Port) SetBoostSink(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boost = active
	p.trace = append(p.trace, fmt.Sprintf("boost=%v", active))
}

func (p *Port) StartTimers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.trace = append(p.trace, "start")
}

// StopTimers blocks until any in-flight Cycle has finished delivering its
// tick; once it returns no tick can run.
func (p *Port) StopTimers() {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.trace = append(p.trace, "stop")
}

func (p *Port) TickOverrun() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.overflow
	p.overflow = false
	return v
}

// Cycle models one PWM cycle boundary: the pending compare values latch,
// then the tick handler runs. No-op while the timers are stopped.
func (p *Port) Cycle(tick func()) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.latched = p.pending
	p.mu.Unlock()
	tick()
}

// InjectOverflow marks the overflow flag set, as the hardware would after
// an overlong tick handler.
func (p *Port) InjectOverflow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overflow = true
}

// Anodes returns the current anode line states.
func (p *Port) Anodes() [pixel.PixelCount]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anodes
}

// ActiveAnodes counts anode lines currently high.
func (p *Port) ActiveAnodes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, a := range p.anodes {
		if a {
			n++
		}
	}
	return n
}

// Boost reports the boost-sink line state.
func (p *Port) Boost() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.boost
}

// Latched returns the compare value governing the current cycle.
func (p *Port) Latched(c pixel.Channel) pixel.DriveLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latched[c]
}

// Pending returns the compare value waiting for the next boundary.
func (p *Port) Pending(c pixel.Channel) pixel.DriveLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[c]
}

// Running reports whether the timers are started.
func (p *Port) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trace returns a copy of the ordered line-transition log.
func (p *Port) Trace() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.trace...)
}

// ResetTrace clears the transition log.
func (p *Port) ResetTrace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trace = p.trace[:0]
}
