package pixel

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Driver owns the color store and scan state for one tile and exposes the
// public surface the surrounding firmware uses. Construct it with the port
// for the board and the scan policy matching the board's pump topology.
//
// Tick runs in tick context with a hard per-cycle deadline; everything else
// is foreground. The driver never logs from tick context.
type Driver struct {
	port   Port
	policy Policy
	store  Store
	state  ScanState

	onFrame  atomic.Value // func()
	initOnce sync.Once
	enabled  atomic.Bool
	frames   atomic.Uint64
	overruns atomic.Uint64
	log      zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger attaches a logger for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

func New(port Port, policy Policy, opts ...Option) *Driver {
	d := &Driver{
		port:   port,
		policy: policy,
		log:    zerolog.Nop(),
	}
	d.onFrame.Store(func() {})
	for _, o := range opts {
		o(d)
	}
	return d
}

// Init performs one-time setup: every output is forced to its inactive
// state before the first tick can run, then the driver is enabled.
// Idempotent; later calls do nothing.
func (d *Driver) Init() {
	d.initOnce.Do(func() {
		deactivateAllAnodes(d.port)
		d.port.SetBoostSink(false)
		d.port.SetCompare(Red, DriveOff)
		d.port.SetCompare(Green, DriveOff)
		d.port.SetCompare(Blue, DriveOff)
		d.log.Info().Str("policy", d.policy.Name()).Msg("pixel driver init")
		d.Enable()
	})
}

// Enable resets every pixel to off, rewinds the scan to its initial
// position and starts the timers. Tick delivery resumes on return.
// No-op while already enabled: the scan state belongs to the tick
// context then and may only be reset with the timers stopped.
func (d *Driver) Enable() {
	if !d.enabled.CompareAndSwap(false, true) {
		return
	}
	d.store.SetAll(0, 0, 0, d.policy.Headroom())
	d.state = initialScanState()
	d.port.StartTimers()
	d.log.Info().Msg("pixel scan enabled")
}

// Disable stops the scan and forces every LED line dark. The timers stop
// first so no pending tick can re-activate a line mid-teardown; only then
// are the anodes and the pump sink forced off. After return nothing draws
// current, whatever the store holds.
func (d *Driver) Disable() {
	d.port.StopTimers()
	deactivateAllAnodes(d.port)
	d.port.SetBoostSink(false)
	d.enabled.Store(false)
	d.log.Info().
		Uint64("frames", d.frames.Load()).
		Uint64("overruns", d.overruns.Load()).
		Msg("pixel scan disabled")
}

// Tick advances the scan by one phase. The port calls it once per PWM
// cycle boundary; the whole call must finish well inside one cycle period.
func (d *Driver) Tick() {
	if d.port.TickOverrun() {
		// The previous tick ran past its boundary. Already visible as a
		// glitch; all we can do is count it for diagnostics.
		d.overruns.Add(1)
	}
	if d.policy.Advance(&d.state, &d.store, d.port) {
		d.frames.Add(1)
		d.onFrame.Load().(func())()
	}
}

// SetColor sets one pixel's color. The linear 0..255 inputs are mapped
// through the gamma/headroom curve before they are stored.
func (d *Driver) SetColor(p int, r, g, b uint8) error {
	return d.store.Set(p, r, g, b, d.policy.Headroom())
}

// SetAllColors sets every pixel to the same color.
func (d *Driver) SetAllColors(r, g, b uint8) {
	d.store.SetAll(r, g, b, d.policy.Headroom())
}

// OnFrameComplete registers f to run once per full rotation, from tick
// context. It must be non-blocking and fast: the next tick's deadline is
// already in force while it runs. A nil f restores the no-op default.
func (d *Driver) OnFrameComplete(f func()) {
	if f == nil {
		f = func() {}
	}
	d.onFrame.Store(f)
}

// Enabled reports whether the scan is running.
func (d *Driver) Enabled() bool { return d.enabled.Load() }

// Frames returns the number of completed rotations since construction.
func (d *Driver) Frames() uint64 { return d.frames.Load() }

// Overruns returns the number of ticks that missed their cycle deadline.
func (d *Driver) Overruns() uint64 { return d.overruns.Load() }

// PolicyName identifies the scan policy for observers.
func (d *Driver) PolicyName() string { return d.policy.Name() }

// Snapshot copies the current per-pixel drive levels, for observers like
// the monitor and the bench mirror.
func (d *Driver) Snapshot() [PixelCount][3]DriveLevel {
	return d.store.Snapshot()
}
