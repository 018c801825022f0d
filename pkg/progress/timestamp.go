package progress

import "time"

const (
	timestampLayout = "Jan 2, 2006 3:04pm"
	notStarted      = "Not started"
)

// FormatTimestamp renders t in UTC as e.g. "Mar 7, 2025 9:05am".
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notStarted
	}

	return t.UTC().Format(timestampLayout)
}
