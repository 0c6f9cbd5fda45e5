package pixel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexira/facetile/internal/hw/sim"
	"github.com/hexira/facetile/internal/pixel"
)

func TestInitIdempotent(t *testing.T) {
	port := sim.New()
	drv := pixel.New(port, pixel.RestPolicy{})
	drv.Init()
	drv.Init()
	starts := 0
	for _, e := range port.Trace() {
		if e == "start" {
			starts++
		}
	}
	assert.Equal(t, 1, starts, "repeated Init must not restart the timers")
	assert.True(t, drv.Enabled())
}

func TestSetColorRejectsBadIndex(t *testing.T) {
	drv := pixel.New(sim.New(), pixel.RestPolicy{})
	assert.ErrorIs(t, drv.SetColor(-1, 1, 2, 3), pixel.ErrPixelRange)
	assert.ErrorIs(t, drv.SetColor(pixel.PixelCount, 1, 2, 3), pixel.ErrPixelRange)
	assert.NoError(t, drv.SetColor(pixel.PixelCount-1, 1, 2, 3))
}

func TestEnableAfterDisableRestartsClean(t *testing.T) {
	port := sim.New()
	drv := pixel.New(port, pixel.RestPolicy{})
	drv.Init()
	require.NoError(t, drv.SetColor(4, 255, 255, 255))
	for k := 0; k < 17; k++ {
		port.Cycle(drv.Tick)
	}
	drv.Disable()
	assert.False(t, drv.Enabled())

	drv.Enable()
	assert.True(t, drv.Enabled())
	assert.True(t, port.Running())
	// Colors reset to off.
	for _, levels := range drv.Snapshot() {
		for _, l := range levels {
			assert.Equal(t, pixel.DriveOff, l)
		}
	}
	// The rotation restarts at pixel zero: its anode rises on the second
	// tick (settle phase).
	port.Cycle(drv.Tick)
	port.Cycle(drv.Tick)
	anodes := port.Anodes()
	assert.True(t, anodes[0], "scan should restart at pixel 0")
	for p := 1; p < pixel.PixelCount; p++ {
		assert.False(t, anodes[p])
	}
}

func TestEnableWhileRunningIsNoOp(t *testing.T) {
	port := sim.New()
	drv := pixel.New(port, pixel.RestPolicy{})
	drv.Init()
	require.NoError(t, drv.SetColor(1, 10, 20, 30))
	for k := 0; k < 7; k++ {
		port.Cycle(drv.Tick)
	}
	before := drv.Snapshot()

	drv.Enable()
	assert.Equal(t, before, drv.Snapshot(), "colors survive a redundant Enable")
	starts := 0
	for _, e := range port.Trace() {
		if e == "start" {
			starts++
		}
	}
	assert.Equal(t, 1, starts, "timers must not restart")
	// The rotation was not rewound: pixel 1 stays lit through its show
	// phases (ticks 7..10).
	port.Cycle(drv.Tick)
	assert.True(t, port.Anodes()[1], "scan position reset by redundant Enable")
}

func TestOnFrameCompleteDefaultAndNil(t *testing.T) {
	port := sim.New()
	drv := pixel.New(port, pixel.PipelinedPolicy{})
	drv.Init()
	// Default no-op must survive a full rotation.
	for k := 0; k < 2*pixel.PixelCount; k++ {
		port.Cycle(drv.Tick)
	}
	fired := 0
	drv.OnFrameComplete(func() { fired++ })
	for k := 0; k < pixel.PixelCount; k++ {
		port.Cycle(drv.Tick)
	}
	assert.Equal(t, 1, fired)
	// Nil restores the no-op.
	drv.OnFrameComplete(nil)
	for k := 0; k < pixel.PixelCount; k++ {
		port.Cycle(drv.Tick)
	}
	assert.Equal(t, 1, fired)
}

func TestSnapshotMatchesSetColors(t *testing.T) {
	drv := pixel.New(sim.New(), pixel.PipelinedPolicy{})
	require.NoError(t, drv.SetColor(2, 255, 0, 128))
	snap := drv.Snapshot()
	assert.Equal(t, pixel.MapToDrive(pixel.Red, 255, pixel.PipelinedHeadroom), snap[2][pixel.Red])
	assert.Equal(t, pixel.DriveOff, snap[2][pixel.Green])
	assert.Equal(t, pixel.MapToDrive(pixel.Blue, 128, pixel.PipelinedHeadroom), snap[2][pixel.Blue])
}

func TestPolicyByName(t *testing.T) {
	p, err := pixel.PolicyByName("rest")
	require.NoError(t, err)
	assert.Equal(t, "rest", p.Name())
	p, err = pixel.PolicyByName("pipelined")
	require.NoError(t, err)
	assert.Equal(t, "pipelined", p.Name())
	_, err = pixel.PolicyByName("adaptive")
	assert.Error(t, err)
}
