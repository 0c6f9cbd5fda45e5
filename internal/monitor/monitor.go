// Package monitor is a read-only websocket observer for a running pixel
// driver: per-face duty levels, frame and overrun counters, and
// diagnostics. It samples the driver from its own goroutine, never from
// tick context.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/hexira/facetile/internal/diagnostics"
	"github.com/hexira/facetile/internal/pixel"
)

type State struct {
	mu          sync.RWMutex
	drv         *pixel.Driver
	interval    time.Duration
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	lastOverruns uint64
}

func NewState(drv *pixel.Driver, interval time.Duration) *State {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &State{
		drv:         drv,
		interval:    interval,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// frame is the wire form of one sample: per-face channel duty, 0..255
// with 255 meaning full brightness (the drive-level inversion is undone
// for the viewer, the gamma curve is not).
type frame struct {
	T        int64                      `json:"t"`
	Frame    uint64                     `json:"frame"`
	Overruns uint64                     `json:"overruns"`
	Enabled  bool                       `json:"enabled"`
	Faces    [pixel.PixelCount][3]uint8 `json:"faces"`
}

func (s *State) sample() frame {
	snap := s.drv.Snapshot()
	f := frame{
		T:        time.Now().UnixNano(),
		Frame:    s.drv.Frames(),
		Overruns: s.drv.Overruns(),
		Enabled:  s.drv.Enabled(),
	}
	for p := range snap {
		for c := range snap[p] {
			f.Faces[p][c] = uint8(pixel.DriveOff - snap[p][c])
		}
	}
	return f
}

// RunSampleLoop samples the driver at the configured interval, broadcasts
// each sample to frame clients, and raises a diagnostic when the overrun
// counter has moved. Blocks; run it in its own goroutine.
func (s *State) RunSampleLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for range ticker.C {
		f := s.sample()
		s.broadcastFrame(f)
		if f.Overruns > s.lastOverruns {
			s.lastOverruns = f.Overruns
			s.pushDiag(diag.Overrun(f.Overruns))
		}
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"uptime_s": time.Since(s.startTime).Seconds(),
		"policy":   s.drv.PolicyName(),
		"enabled":  s.drv.Enabled(),
		"frames":   s.drv.Frames(),
		"overruns": s.drv.Overruns(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) broadcastFrame(f frame) {
	b, _ := json.Marshal(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("dropping frame client")
			delete(s.clients, c)
			c.Close()
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			delete(s.diagClients, c)
			c.Close()
		}
	}
}
