// facesim runs the pixel driver headless on the sim port with a demo
// color sweep in the foreground, exercising color writes concurrently with
// the scan. Attach the web monitor to watch the faces.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hexira/facetile/internal/hw/sim"
	"github.com/hexira/facetile/internal/monitor"
	"github.com/hexira/facetile/internal/pixel"
)

func main() {
	var (
		policyName = flag.String("policy", "rest", "scan policy: rest | pipelined")
		addr       = flag.String("addr", ":8080", "monitor listen address")
		cycleUs    = flag.Int("cycle-us", 2000, "PWM cycle period (microseconds)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	policy, err := pixel.PolicyByName(*policyName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad policy")
	}

	port := sim.New()
	drv := pixel.New(port, policy, pixel.WithLogger(log.Logger))
	drv.Init()

	go func() {
		ticker := time.NewTicker(time.Duration(*cycleUs) * time.Microsecond)
		defer ticker.Stop()
		for range ticker.C {
			port.Cycle(drv.Tick)
		}
	}()

	// Foreground demo: walk a hue offset around the six faces.
	go func() {
		phase := 0.0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			for p := 0; p < pixel.PixelCount; p++ {
				h := phase + float64(p)/pixel.PixelCount
				for h >= 1 {
					h -= 1
				}
				r, g, b := hsvToRGB(h, 1.0, 1.0)
				_ = drv.SetColor(p, uint8(r*255), uint8(g*255), uint8(b*255))
			}
			phase += 0.01
			if phase >= 1 {
				phase = 0
			}
		}
	}()

	state := monitor.NewState(drv, 50*time.Millisecond)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/health", state.HandleHealth)
	srv := &http.Server{Addr: *addr, Handler: mux}
	go state.RunSampleLoop()
	go func() {
		log.Info().Str("addr", *addr).Str("policy", *policyName).Msg("monitor listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("monitor server crashed")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	drv.Disable()
	_ = srv.Close()
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
