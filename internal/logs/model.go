// Package logs persists backend log lines for the dashboard log viewer and
// prunes old rows on a schedule.
package logs

import (
	"encoding/json"
	"time"
)

const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// Entry is one persisted log line.
type Entry struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
}

// KnownLevel reports whether level is one of the stored levels.
func KnownLevel(level string) bool {
	switch level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError:
		return true
	}
	return false
}
