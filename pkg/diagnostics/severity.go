package diagnostics

// Severity ranks a failure. The zero value is Notice.
type Severity int

const (
	Notice Severity = iota
	Degraded
	Critical
)

// accent colors, indexed by severity
var palette = [...]int{
	Notice:   0x20E0E0,
	Degraded: 0xFF8020,
	Critical: 0xFF2040,
}

// Color returns the embed accent color for the severity
func (s Severity) Color() int {
	if s < Notice || s > Critical {
		return palette[Notice]
	}
	return palette[s]
}

func (s Severity) String() string {
	switch s {
	case Degraded:
		return "degraded"
	case Critical:
		return "critical"
	default:
		return "notice"
	}
}
