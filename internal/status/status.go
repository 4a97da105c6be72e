// Package status maps a request's lifecycle state to its presentation tuple.
// Every view that displays a status consults this table; nothing else encodes
// status-to-label logic.
package status

// Tone is the visual weight a status carries.
type Tone string

const (
	ToneDefault    Tone = "default"
	ToneProcessing Tone = "processing"
	ToneSuccess    Tone = "success"
	ToneError      Tone = "error"
)

// Projection is the presentation tuple for a (status, is_success) pair.
type Projection struct {
	Tone     Tone   `json:"tone"`
	Icon     string `json:"icon"`
	LabelKey string `json:"labelKey"`
	Animated bool   `json:"animated"`
}

// Project returns the projection for the given status string and success flag.
// is_success only matters for Completed. Unrecognized statuses map to the
// unknown row rather than failing.
func Project(status string, isSuccess bool) Projection {
	switch status {
	case "Queued":
		return Projection{Tone: ToneDefault, Icon: "clock-circle", LabelKey: "status.queued"}
	case "Processing":
		return Projection{Tone: ToneProcessing, Icon: "sync", LabelKey: "status.processing", Animated: true}
	case "Completed":
		if isSuccess {
			return Projection{Tone: ToneSuccess, Icon: "check-circle", LabelKey: "status.completed"}
		}
		return Projection{Tone: ToneError, Icon: "close-circle", LabelKey: "status.analysisFailed"}
	case "Failed":
		return Projection{Tone: ToneError, Icon: "close-circle", LabelKey: "status.failed"}
	default:
		return Projection{Tone: ToneDefault, Icon: "question-circle", LabelKey: "status.unknown"}
	}
}

// Known reports whether the status string is one of the lifecycle states.
func Known(status string) bool {
	switch status {
	case "Queued", "Processing", "Completed", "Failed":
		return true
	}
	return false
}
