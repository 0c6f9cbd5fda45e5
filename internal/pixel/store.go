package pixel

import (
	"errors"
	"sync/atomic"
)

// PixelCount is the number of multiplexed face pixels (anode lines).
const PixelCount = 6

// ErrPixelRange is returned for a pixel index outside [0, PixelCount).
var ErrPixelRange = errors.New("pixel index out of range")

// Store holds the precomputed drive level for every (pixel, channel) pair.
// Drive levels are precomputed at set time because the scheduler reads them
// on every tick and must stay cheap.
//
// Foreground callers write through Set/SetAll; the scheduler reads through
// Level once per tick. Each channel slot is individually atomic, but the
// three channels of one pixel are not a transaction: a tick racing a Set
// may show one stale channel for a single frame. That relaxed consistency
// is deliberate and bounded (never a crash, never persistent corruption).
type Store struct {
	levels [PixelCount][3]atomic.Uint32
}

// Set maps (r, g, b) through the gamma/headroom curve and stores the three
// drive levels for pixel p. Rejects an out-of-range index without writing.
func (s *Store) Set(p int, r, g, b uint8, h Headroom) error {
	if p < 0 || p >= PixelCount {
		return ErrPixelRange
	}
	s.levels[p][Red].Store(uint32(MapToDrive(Red, r, h)))
	s.levels[p][Green].Store(uint32(MapToDrive(Green, g, h)))
	s.levels[p][Blue].Store(uint32(MapToDrive(Blue, b, h)))
	return nil
}

// SetAll applies the same color to every pixel.
func (s *Store) SetAll(r, g, b uint8, h Headroom) {
	for p := 0; p < PixelCount; p++ {
		_ = s.Set(p, r, g, b, h)
	}
}

// Level returns the current drive level for one channel of one pixel.
func (s *Store) Level(p int, c Channel) DriveLevel {
	return DriveLevel(s.levels[p][c].Load())
}

// Snapshot copies all drive levels at once. Channels are read individually,
// so the copy has the same relaxed consistency as the scheduler's view.
func (s *Store) Snapshot() [PixelCount][3]DriveLevel {
	var out [PixelCount][3]DriveLevel
	for p := 0; p < PixelCount; p++ {
		for c := Red; c <= Blue; c++ {
			out[p][c] = s.Level(p, c)
		}
	}
	return out
}
