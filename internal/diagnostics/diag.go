package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic codes raised by the driver stack.
const (
	CodeScanOverrun = "SCAN.OVERRUN"
	CodeScanDisable = "SCAN.DISABLED"
	CodePortFault   = "PORT.FAULT"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Overrun describes ticks that ran past the PWM cycle boundary.
func Overrun(total uint64) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     CodeScanOverrun,
		Summary:  "scan tick missed its cycle deadline",
		Detail:   "the previous tick was still running at the next PWM cycle boundary; an anode stayed lit into the wrong cycle",
		LikelyCauses: []string{
			"frame-complete callback doing too much work in tick context",
			"cycle period configured shorter than the host can service",
		},
		SuggestedFixes: []string{
			"move work out of the OnFrameComplete callback",
			"raise cycle_us",
		},
		Evidence: map[string]any{"overruns_total": total},
	}
}
