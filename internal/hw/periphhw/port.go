// Package periphhw implements the hardware timer/PWM port on periph.io
// GPIO pins: anode and boost-sink lines as plain outputs, the three
// cathode channels as PWM outputs, and a ticker goroutine standing in for
// the timer overflow interrupt.
package periphhw

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/hexira/facetile/internal/pixel"
)

// DefaultCyclePeriod matches the reference board's ~2ms PWM cycle.
const DefaultCyclePeriod = 2 * time.Millisecond

// Config names the pins by their gpioreg names (e.g. "GPIO17").
type Config struct {
	AnodePins [pixel.PixelCount]string
	RedPin    string
	GreenPin  string
	BluePin   string
	// BoostSinkPin is active-low: driving the pin low charges the pump.
	BoostSinkPin string
	CyclePeriod  time.Duration
}

// Port drives the tile through periph.io. Compare writes are banked and
// only applied to the PWM pins at the next cycle boundary, preserving the
// double-buffer latency the scan policies are written against.
type Port struct {
	anodes  [pixel.PixelCount]gpio.PinOut
	cathode [3]gpio.PinOut
	boost   gpio.PinOut
	period  time.Duration
	pwmFreq physic.Frequency

	mu      sync.Mutex
	pending [3]pixel.DriveLevel

	tick    func()
	stop    chan struct{}
	done    chan struct{}
	overrun atomic.Bool
	pinErrs atomic.Uint64
	log     zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Port, error) {
	if cfg.CyclePeriod <= 0 {
		cfg.CyclePeriod = DefaultCyclePeriod
	}
	p := &Port{
		period:  cfg.CyclePeriod,
		pwmFreq: physic.Frequency(int64(time.Second)/int64(cfg.CyclePeriod)) * physic.Hertz,
		log:     log,
	}
	for i, name := range cfg.AnodePins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("anode %d: no pin %q", i, name)
		}
		p.anodes[i] = pin
	}
	for c, name := range map[pixel.Channel]string{
		pixel.Red:   cfg.RedPin,
		pixel.Green: cfg.GreenPin,
		pixel.Blue:  cfg.BluePin,
	} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("%s cathode: no pin %q", c, name)
		}
		p.cathode[c] = pin
	}
	boost := gpioreg.ByName(cfg.BoostSinkPin)
	if boost == nil {
		return nil, fmt.Errorf("boost sink: no pin %q", cfg.BoostSinkPin)
	}
	p.boost = boost

	// Everything inactive before any tick can run: anodes low, cathodes
	// high (active-low off), sink idle high.
	for c := range p.pending {
		p.pending[c] = pixel.DriveOff
	}
	for i := range p.anodes {
		if err := p.anodes[i].Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("anode %d: %w", i, err)
		}
	}
	for c := range p.cathode {
		if err := p.cathode[c].Out(gpio.High); err != nil {
			return nil, fmt.Errorf("cathode %d: %w", c, err)
		}
	}
	if err := p.boost.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("boost sink: %w", err)
	}
	return p, nil
}

// SetTickHandler registers the scheduler entry invoked at every cycle
// boundary. Must be set before StartTimers.
func (p *Port) SetTickHandler(f func()) { p.tick = f }

func (p *Port) SetAnode(pix int, active bool) {
	if err := p.anodes[pix].Out(gpio.Level(active)); err != nil {
		p.pinErrs.Add(1)
	}
}

func (p *Port) SetCompare(c pixel.Channel, level pixel.DriveLevel) {
	p.mu.Lock()
	p.pending[c] = level
	p.mu.Unlock()
}

func (p *Port) SetBoostSink(active bool) {
	// The sink is active-low.
	if err := p.boost.Out(gpio.Level(!active)); err != nil {
		p.pinErrs.Add(1)
	}
}

func (p *Port) StartTimers() {
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
	p.log.Info().Dur("period", p.period).Msg("cycle timer started")
}

func (p *Port) StopTimers() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
	if n := p.pinErrs.Swap(0); n > 0 {
		p.log.Warn().Uint64("count", n).Msg("pin writes failed while running")
	}
	p.log.Info().Msg("cycle timer stopped")
}

func (p *Port) TickOverrun() bool {
	return p.overrun.Swap(false)
}

// run is the cycle loop: at each boundary it latches the banked compare
// values onto the PWM pins, then delivers the tick. A handler that is
// still busy at the next boundary marks the overrun flag, which the driver
// reads at the top of the following tick.
func (p *Port) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.latch()
			start := time.Now()
			if p.tick != nil {
				p.tick()
			}
			if time.Since(start) > p.period {
				p.overrun.Store(true)
			}
		}
	}
}

func (p *Port) latch() {
	p.mu.Lock()
	levels := p.pending
	p.mu.Unlock()
	for c := range p.cathode {
		if levels[c] == pixel.DriveOff {
			// Off sentinel: a plain high holds the channel inactive
			// without occupying the PWM timer.
			if err := p.cathode[c].Out(gpio.High); err != nil {
				p.pinErrs.Add(1)
			}
			continue
		}
		// The cathode lights while low, so the drive level is the high
		// fraction of the cycle.
		duty := gpio.Duty(uint64(levels[c]) * uint64(gpio.DutyMax) / 255)
		if err := p.cathode[c].PWM(duty, p.pwmFreq); err != nil {
			p.pinErrs.Add(1)
		}
	}
}
