package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hexira/facetile/internal/hw/sim"
	"github.com/hexira/facetile/internal/pixel"
)

func TestCompareWritesLatchAtCycleBoundary(t *testing.T) {
	p := sim.New()
	p.StartTimers()
	p.SetCompare(pixel.Red, 42)
	assert.Equal(t, pixel.DriveLevel(42), p.Pending(pixel.Red))
	assert.Equal(t, pixel.DriveOff, p.Latched(pixel.Red), "write must not take effect mid-cycle")
	p.Cycle(func() {})
	assert.Equal(t, pixel.DriveLevel(42), p.Latched(pixel.Red))
}

func TestCycleSkippedWhileStopped(t *testing.T) {
	p := sim.New()
	ticked := false
	p.Cycle(func() { ticked = true })
	assert.False(t, ticked, "no tick may be delivered before StartTimers")

	p.StartTimers()
	p.StopTimers()
	p.SetCompare(pixel.Blue, 7)
	p.Cycle(func() { ticked = true })
	assert.False(t, ticked, "no tick may be delivered after StopTimers")
	assert.Equal(t, pixel.DriveOff, p.Latched(pixel.Blue), "nothing latches while stopped")
}

func TestOverflowFlagClearsOnRead(t *testing.T) {
	p := sim.New()
	assert.False(t, p.TickOverrun())
	p.InjectOverflow()
	assert.True(t, p.TickOverrun())
	assert.False(t, p.TickOverrun())
}

func TestTraceRecordsTransitionsInOrder(t *testing.T) {
	p := sim.New()
	p.SetAnode(3, true)
	p.SetBoostSink(true)
	p.SetAnode(3, false)
	assert.Equal(t, []string{"anode3=true", "boost=true", "anode3=false"}, p.Trace())
	p.ResetTrace()
	assert.Empty(t, p.Trace())
}
