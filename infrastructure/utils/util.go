package utils

import (
	"time"
)

// GetCurrentTime is the service clock. Timestamps are stored in UTC.
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}
