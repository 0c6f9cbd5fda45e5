package pixel

// Channel identifies one of the three shared cathode lines.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return "channel?"
}

// DriveLevel is the hardware-facing encoding of a channel brightness.
// It is active-low and headroom-scaled: 255 holds the output constantly
// inactive (LED off), lower values mean more duty.
type DriveLevel uint8

// DriveOff is the off sentinel. Writing it to a compare register produces a
// constant inactive output for that channel.
const DriveOff DriveLevel = 255

// Headroom holds the per-channel divisors applied to the gamma-corrected
// intensity. They cap each channel below its safe direct-drive current and
// balance the white point so equal inputs look neutral. The values differ
// per hardware topology, so each scan policy carries its own set.
type Headroom struct {
	R, G, B uint8
}

var (
	// RestHeadroom matches the rest-topology board.
	RestHeadroom = Headroom{R: 3, G: 2, B: 2}
	// PipelinedHeadroom matches the concurrent-pump board.
	PipelinedHeadroom = Headroom{R: 4, G: 4, B: 2}
)

func (h Headroom) divisor(c Channel) uint8 {
	switch c {
	case Red:
		return h.R
	case Green:
		return h.G
	default:
		return h.B
	}
}

// MapToDrive converts a client-facing linear brightness (0=off, 255=max)
// into the value written to a compare register. Pure and total: 0 always
// maps to DriveOff, and a brighter input never yields a larger drive level.
func MapToDrive(c Channel, linear uint8, h Headroom) DriveLevel {
	return DriveOff - DriveLevel(gamma8[linear]/h.divisor(c))
}

// gamma8 approximates a ~2.8 gamma response over 0..255.
// Table courtesy of Adafruit:
// https://learn.adafruit.com/led-tricks-gamma-correction/the-quick-fix
var gamma8 = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2,
	2, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 5, 5, 5,
	5, 6, 6, 6, 6, 7, 7, 7, 7, 8, 8, 8, 9, 9, 9, 10,
	10, 10, 11, 11, 11, 12, 12, 13, 13, 13, 14, 14, 15, 15, 16, 16,
	17, 17, 18, 18, 19, 19, 20, 20, 21, 21, 22, 22, 23, 24, 24, 25,
	25, 26, 27, 27, 28, 29, 29, 30, 31, 32, 32, 33, 34, 35, 35, 36,
	37, 38, 39, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 50,
	51, 52, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 66, 67, 68,
	69, 70, 72, 73, 74, 75, 77, 78, 79, 81, 82, 83, 85, 86, 87, 89,
	90, 92, 93, 95, 96, 98, 99, 101, 102, 104, 105, 107, 109, 110, 112, 114,
	115, 117, 119, 120, 122, 124, 126, 127, 129, 131, 133, 135, 137, 138, 140, 142,
	144, 146, 148, 150, 152, 154, 156, 158, 160, 162, 164, 167, 169, 171, 173, 175,
	177, 180, 182, 184, 186, 189, 191, 193, 196, 198, 200, 203, 205, 208, 210, 213,
	215, 218, 220, 223, 225, 228, 231, 233, 236, 239, 241, 244, 247, 249, 252, 255,
}
