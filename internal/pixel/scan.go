package pixel

import "fmt"

// ScanState is the scheduler's position in the anode rotation. It is owned
// exclusively by the tick context while timers run; foreground code only
// resets it with the timers stopped.
type ScanState struct {
	Current  int // pixel whose anode is (or is about to be) active
	Phase    int
	Previous int // pixel lit during the previous cycle
}

func initialScanState() ScanState {
	return ScanState{Current: 0, Phase: 0, Previous: PixelCount - 1}
}

// Policy advances the scan by one tick. Which policy drives a board is a
// hardware-topology choice made at construction, never at runtime. Both
// implementations keep at most one anode active, only switch the boost
// sink while every anode is low, and always load compare values one cycle
// ahead of their display.
//
// Advance reports true when the tick completed the last phase of the last
// pixel in the rotation.
type Policy interface {
	Name() string
	// Phases is the number of ticks spent on each pixel.
	Phases() int
	// Headroom is the drive-level scaling profile for this topology.
	Headroom() Headroom
	Advance(st *ScanState, store *Store, port Port) (frameDone bool)
}

// PolicyByName maps a config name to its policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "rest":
		return RestPolicy{}, nil
	case "pipelined":
		return PipelinedPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown scan policy %q", name)
}

// Rest-policy phases. Each pixel takes five PWM cycles.
const (
	phasePreCharge = iota // all anodes low, pump charging if blue is lit
	phaseSettle           // pump off, anode up, blue compare loaded
	phaseShowBlue         // blue lit; red loaded for the next cycle
	phaseShowRed          // red lit; green loaded for the next cycle
	phaseShowGreen        // green lit; teardown loaded
	restPhaseCount
)

// RestPolicy is the five-phase schedule for boards whose pump sink shares
// no timer pin: the capacitor may only charge while every anode is low, so
// each pixel gets a dedicated pre-charge and settle window before its
// three show phases.
type RestPolicy struct{}

func (RestPolicy) Name() string       { return "rest" }
func (RestPolicy) Phases() int        { return restPhaseCount }
func (RestPolicy) Headroom() Headroom { return RestHeadroom }

func (RestPolicy) Advance(st *ScanState, store *Store, port Port) bool {
	switch st.Phase {
	case phasePreCharge:
		// Step to the next pixel while everything is dark.
		deactivateAllAnodes(port)
		st.Current = st.Previous + 1
		if st.Current == PixelCount {
			st.Current = 0
		}
		// All anodes are low, so the pump may charge. Skip it when this
		// pixel shows no blue at all.
		if store.Level(st.Current, Blue) != DriveOff {
			port.SetBoostSink(true)
		}
		st.Phase++

	case phaseSettle:
		// The sink must be off before the anode rises.
		port.SetBoostSink(false)
		port.SetAnode(st.Current, true)
		// Latched at the coming boundary, so blue lights during ShowBlue.
		port.SetCompare(Blue, store.Level(st.Current, Blue))
		st.Phase++

	case phaseShowBlue:
		port.SetCompare(Blue, DriveOff)
		port.SetCompare(Red, store.Level(st.Current, Red))
		st.Phase++

	case phaseShowRed:
		port.SetCompare(Red, DriveOff)
		port.SetCompare(Green, store.Level(st.Current, Green))
		st.Phase++

	case phaseShowGreen:
		port.SetCompare(Green, DriveOff)
		st.Previous = st.Current
		st.Phase = 0
		return st.Current == PixelCount-1
	}
	return false
}

// PipelinedPolicy is the single-cycle-per-pixel schedule for boards whose
// pump topology lets the capacitor charge while a pixel is lit. Every tick
// runs three stages back to back: retire the previous pixel, light the
// current one (whose compare values were loaded a tick ago and latched at
// the boundary that just fired), and preload the next pixel's values.
type PipelinedPolicy struct{}

func (PipelinedPolicy) Name() string       { return "pipelined" }
func (PipelinedPolicy) Phases() int        { return 1 }
func (PipelinedPolicy) Headroom() Headroom { return PipelinedHeadroom }

func (PipelinedPolicy) Advance(st *ScanState, store *Store, port Port) bool {
	// Retire the pixel lit during the cycle that just ended. The sink
	// goes off with it so the pump decision below always starts clean.
	deactivateAllAnodes(port)
	port.SetBoostSink(false)

	st.Current = st.Previous + 1
	if st.Current == PixelCount {
		st.Current = 0
	}

	// The sink only ever switches here, while every anode is low. On this
	// topology it then stays on through the display cycle, charging the
	// capacitor while the pixel is lit.
	if store.Level(st.Current, Blue) != DriveOff {
		port.SetBoostSink(true)
	}
	port.SetAnode(st.Current, true)

	// Preload the pixel after this one; the hardware latches these at the
	// next boundary, right when its anode will rise.
	next := st.Current + 1
	if next == PixelCount {
		next = 0
	}
	port.SetCompare(Red, store.Level(next, Red))
	port.SetCompare(Green, store.Level(next, Green))
	port.SetCompare(Blue, store.Level(next, Blue))

	st.Previous = st.Current
	return st.Current == PixelCount-1
}
