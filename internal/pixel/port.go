package pixel

// Port is the hardware timer/PWM surface the scheduler drives. Real
// implementations map these calls onto pins and timer registers; the sim
// implementation models them for tests and headless runs.
//
// Compare registers are double buffered by the hardware: a value written
// during tick k is latched at the k/k+1 cycle boundary and governs cycle
// k+1, never cycle k. The scan policies are written around that latency
// and every implementation must preserve it.
//
// None of these calls return errors. The scheduler runs in tick context
// with a hard per-cycle deadline and has no recovery path; implementations
// absorb and report their own faults.
type Port interface {
	// SetAnode drives one pixel's anode line.
	SetAnode(pixel int, active bool)
	// SetCompare writes a channel's next compare value (latched at the
	// coming cycle boundary). DriveOff forces the channel inactive.
	SetCompare(c Channel, level DriveLevel)
	// SetBoostSink switches the charge-pump sink line. Active means the
	// pump is charging.
	SetBoostSink(active bool)
	// StartTimers starts the PWM timers and tick delivery.
	StartTimers()
	// StopTimers halts tick delivery before returning, so no tick can run
	// after it. Called first during teardown.
	StopTimers()
	// TickOverrun reports whether the previous tick handler was still
	// running when this cycle boundary arrived, and clears the flag.
	TickOverrun() bool
}

// deactivateAllAnodes drops every anode line.
func deactivateAllAnodes(port Port) {
	for p := 0; p < PixelCount; p++ {
		port.SetAnode(p, false)
	}
}
