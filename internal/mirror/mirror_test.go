package mirror_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/hexira/facetile/internal/mirror"
	"github.com/hexira/facetile/internal/pixel"
)

func testFrame() [pixel.PixelCount][3]pixel.DriveLevel {
	var f [pixel.PixelCount][3]pixel.DriveLevel
	for p := range f {
		f[p] = [3]pixel.DriveLevel{pixel.DriveOff, pixel.DriveOff, pixel.DriveOff}
	}
	f[2] = [3]pixel.DriveLevel{170, pixel.DriveOff, 237}
	return f
}

func TestShowOverRecordedSPI(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := mirror.NewFromSPI(spitest.NewRecordRaw(&buf))
	require.NoError(t, err)
	require.NoError(t, m.Show(testFrame()))
	assert.NotZero(t, buf.Len(), "a frame should reach the wire")
	assert.NoError(t, m.Halt())
}

func TestConsoleFallbackWhenNoSPI(t *testing.T) {
	m, err := mirror.New("no-such-spi-port")
	require.NoError(t, err, "missing SPI must fall back, not fail")
	assert.NoError(t, m.Show(testFrame()))
	assert.NoError(t, m.Halt())
}
