package requests

import "time"

// Events receives lifecycle notifications for the live dashboard feed.
// Implementations must not block; delivery is best-effort.
type Events interface {
	RequestCreated(payload any)
	RequestUpdated(id int64, status string, updatedAt time.Time, errorMessage *string)
	RequestDeleted(id int64)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) RequestCreated(any)                              {}
func (NopEvents) RequestUpdated(int64, string, time.Time, *string) {}
func (NopEvents) RequestDeleted(int64)                            {}
