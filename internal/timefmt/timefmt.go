package timefmt

import (
	"fmt"
	"time"
)

// layouts accepted for inbound timestamps, tried in order. Device firmware
// publishes RFC3339 with offsets; some clients send zone-less ISO-8601,
// which is taken as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse parses an ISO-8601 date-time string and normalizes it to UTC.
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
