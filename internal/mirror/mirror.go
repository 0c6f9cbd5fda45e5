// Package mirror repeats the tile's six faces on an external nrzled
// (WS2812-class) strip over SPI, so the scan output can be watched on the
// bench without tile hardware attached. What it shows is the physical duty
// per channel, not the client color: gamma is not invertible.
package mirror

import (
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/hexira/facetile/internal/pixel"
)

const stripFreq = 2500 * physic.KiloHertz

type Mirror struct {
	drawer display.Drawer
}

// New opens the named SPI port and attaches the strip. With no usable SPI
// port it falls back to an ANSI console strip so bench runs still show
// something.
func New(dev string) (*Mirror, error) {
	port, err := spireg.Open(dev)
	if err != nil {
		log.Warn().Err(err).Str("dev", dev).Msg("no SPI port; mirroring to console")
		return &Mirror{drawer: screen.New(pixel.PixelCount)}, nil
	}
	return NewFromSPI(port)
}

// NewFromSPI attaches the strip to an already-open SPI port.
func NewFromSPI(port spi.Port) (*Mirror, error) {
	opts := nrzled.Opts{
		NumPixels: pixel.PixelCount,
		Channels:  3,
		Freq:      stripFreq,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, err
	}
	d.Halt()
	return &Mirror{drawer: d}, nil
}

// Show pushes one drive-level snapshot to the strip.
func (m *Mirror) Show(frame [pixel.PixelCount][3]pixel.DriveLevel) error {
	im := image.NewNRGBA(image.Rect(0, 0, pixel.PixelCount, 1))
	for p, levels := range frame {
		im.SetNRGBA(p, 0, color.NRGBA{
			R: uint8(pixel.DriveOff - levels[pixel.Red]),
			G: uint8(pixel.DriveOff - levels[pixel.Green]),
			B: uint8(pixel.DriveOff - levels[pixel.Blue]),
			A: 255,
		})
	}
	return m.drawer.Draw(m.drawer.Bounds(), im, image.Point{})
}

// Halt blanks the strip.
func (m *Mirror) Halt() error {
	return m.drawer.Halt()
}
