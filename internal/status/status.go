// Package status classifies what an agent session is doing from the text
// currently visible in its terminal pane.
package status

// Status is the classified activity of a session. It is recomputed on
// every poll and never persisted.
type Status int

const (
	Idle Status = iota
	Waiting
	Running
	Error
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Icon returns a single-glyph indicator used in listings.
func (s Status) Icon() string {
	switch s {
	case Waiting:
		return "◐"
	case Running:
		return "●"
	case Error:
		return "✗"
	default:
		return "○"
	}
}
