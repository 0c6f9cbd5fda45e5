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
	"periph.io/x/host/v3"

	"github.com/hexira/facetile/internal/config"
	"github.com/hexira/facetile/internal/hw/periphhw"
	"github.com/hexira/facetile/internal/hw/sim"
	"github.com/hexira/facetile/internal/mirror"
	"github.com/hexira/facetile/internal/monitor"
	"github.com/hexira/facetile/internal/pixel"
)

func main() {
	var (
		configPath = flag.String("config", "facetile.yaml", "path to config yaml")
		portKind   = flag.String("port", "", "hardware port: periph | sim (overrides config)")
		policyName = flag.String("policy", "", "scan policy: rest | pipelined (overrides config)")
		addr       = flag.String("addr", "", "monitor listen address (overrides config)")
		simOnly    = flag.Bool("sim-only", false, "force the sim port (no hardware output)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	if *portKind != "" {
		cfg.Port = *portKind
	}
	if *policyName != "" {
		cfg.Policy = *policyName
	}
	if *addr != "" {
		cfg.Monitor.Addr = *addr
	}
	if *simOnly {
		cfg.Port = "sim"
	}

	policy, err := pixel.PolicyByName(cfg.Policy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad policy")
	}
	cyclePeriod := time.Duration(cfg.CycleUs) * time.Microsecond
	if cyclePeriod <= 0 {
		cyclePeriod = periphhw.DefaultCyclePeriod
	}

	// Port selection, falling back to sim when hardware is unavailable.
	var (
		drv     *pixel.Driver
		simPort *sim.Port
	)
	switch cfg.Port {
	case "periph":
		if _, err := host.Init(); err != nil {
			log.Fatal().Err(err).Msg("periph host init failed")
		}
		hwPort, err := periphhw.New(periphhw.Config{
			AnodePins:    cfg.Pins.Anodes,
			RedPin:       cfg.Pins.Red,
			GreenPin:     cfg.Pins.Green,
			BluePin:      cfg.Pins.Blue,
			BoostSinkPin: cfg.Pins.BoostSink,
			CyclePeriod:  cyclePeriod,
		}, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("hardware port init failed; falling back to sim")
			simPort = sim.New()
			drv = pixel.New(simPort, policy, pixel.WithLogger(log.Logger))
		} else {
			drv = pixel.New(hwPort, policy, pixel.WithLogger(log.Logger))
			hwPort.SetTickHandler(drv.Tick)
		}
	default:
		simPort = sim.New()
		drv = pixel.New(simPort, policy, pixel.WithLogger(log.Logger))
	}

	drv.Init()

	// The sim port has no timer of its own; run its cycle loop here.
	if simPort != nil {
		go func() {
			ticker := time.NewTicker(cyclePeriod)
			defer ticker.Stop()
			for range ticker.C {
				simPort.Cycle(drv.Tick)
			}
		}()
	}

	var srv *http.Server
	if cfg.Monitor.Addr != "" {
		state := monitor.NewState(drv, 50*time.Millisecond)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", state.HandleFramesWS)
		mux.HandleFunc("/diag", state.HandleDiagWS)
		mux.HandleFunc("/health", state.HandleHealth)
		srv = &http.Server{Addr: cfg.Monitor.Addr, Handler: mux}
		go state.RunSampleLoop()
		go func() {
			log.Info().Str("addr", cfg.Monitor.Addr).Msg("monitor listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("monitor server crashed")
			}
		}()
	}

	var m *mirror.Mirror
	if cfg.Mirror.Enabled {
		if m, err = mirror.New(cfg.Mirror.SPIDev); err != nil {
			log.Warn().Err(err).Msg("mirror init failed")
			m = nil
		} else {
			go func() {
				ticker := time.NewTicker(50 * time.Millisecond)
				defer ticker.Stop()
				for range ticker.C {
					_ = m.Show(drv.Snapshot())
				}
			}()
		}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	drv.Disable()
	if srv != nil {
		_ = srv.Close()
	}
	if m != nil {
		_ = m.Halt()
	}
}
