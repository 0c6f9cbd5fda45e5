package periphhw

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/hexira/facetile/internal/pixel"
)

func testConfig(t *testing.T) (Config, map[string]*gpiotest.Pin) {
	t.Helper()
	pins := map[string]*gpiotest.Pin{}
	reg := func(name string) string {
		p := &gpiotest.Pin{N: name}
		if err := gpioreg.Register(p); err == nil {
			pins[name] = p
		} else {
			// Already registered by an earlier test run in this process.
			pins[name] = gpioreg.ByName(name).(*gpiotest.Pin)
		}
		return name
	}
	cfg := Config{CyclePeriod: time.Millisecond}
	for i := range cfg.AnodePins {
		cfg.AnodePins[i] = reg(fmt.Sprintf("TESTANODE%d", i))
	}
	cfg.RedPin = reg("TESTRED")
	cfg.GreenPin = reg("TESTGREEN")
	cfg.BluePin = reg("TESTBLUE")
	cfg.BoostSinkPin = reg("TESTBOOST")
	return cfg, pins
}

func TestNewRejectsUnknownPins(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestLinesDriveRegisteredPins(t *testing.T) {
	cfg, pins := testConfig(t)
	p, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	// Construction leaves everything inactive.
	assert.Equal(t, gpio.Low, pins["TESTANODE0"].L)
	assert.Equal(t, gpio.High, pins["TESTBOOST"].L, "sink idles high (active-low)")

	p.SetAnode(0, true)
	assert.Equal(t, gpio.High, pins["TESTANODE0"].L)
	p.SetAnode(0, false)
	assert.Equal(t, gpio.Low, pins["TESTANODE0"].L)

	p.SetBoostSink(true)
	assert.Equal(t, gpio.Low, pins["TESTBOOST"].L, "charging drives the sink low")
	p.SetBoostSink(false)
	assert.Equal(t, gpio.High, pins["TESTBOOST"].L)
}

func TestTickerDeliversTicksUntilStopped(t *testing.T) {
	cfg, _ := testConfig(t)
	p, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	var ticks atomic.Uint64
	p.SetTickHandler(func() { ticks.Add(1) })
	p.SetCompare(pixel.Red, 200)
	p.StartTimers()
	time.Sleep(20 * time.Millisecond)
	p.StopTimers()
	got := ticks.Load()
	assert.Greater(t, got, uint64(4), "expected several cycle boundaries in 20ms at 1ms period")

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, got, ticks.Load(), "no ticks after StopTimers")

	// Restart works.
	p.StartTimers()
	time.Sleep(5 * time.Millisecond)
	p.StopTimers()
	assert.Greater(t, ticks.Load(), got)
}
