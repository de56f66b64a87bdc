package models

import "time"

// Event is the canonical persisted shape of one device-telemetry event.
// JSON tags match the stored document layout exactly; deviceId doubles as
// the partition key and userid is deliberately lower-cased to stay
// compatible with documents written by earlier revisions of the service.
type Event struct {
	ID          string         `json:"id"`
	EventID     string         `json:"EventId,omitempty"`
	Name        string         `json:"Event,omitempty"`
	Data        map[string]any `json:"Data"`
	DeviceID    string         `json:"deviceId"`
	PublishedAt time.Time      `json:"PublishedAt"`
	UserID      string         `json:"userid,omitempty"`
	ProductID   string         `json:"ProductId,omitempty"`
	FwVersion   string         `json:"FwVersion,omitempty"`
}

// IngestRequest is the POST /api/events payload as devices publish it.
// Data carries the sensor readings as a JSON-encoded string, decoded and
// validated during normalization. Field names follow the publisher's
// webhook contract and are not under our control.
type IngestRequest struct {
	EventID     string `json:"EventId"`
	Event       string `json:"Event"`
	DeviceID    string `json:"DeviceId"`
	PublishedAt string `json:"PublishedAt"`
	Data        string `json:"Data"`
	UserID      string `json:"userid"`
	ProductID   string `json:"ProductId"`
	FwVersion   string `json:"FwVersion"`
}
