// Package ingest validates and normalizes inbound telemetry payloads into
// storable events. It is pure: all I/O happens in the store layer.
package ingest

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/iotcloud/device-events-service/internal/models"
	"github.com/iotcloud/device-events-service/internal/timefmt"
)

// Validation failures, all client-caused.
var (
	ErrMissingData      = errors.New("ingest: Data is required")
	ErrInvalidJSON      = errors.New("ingest: Data field is not valid JSON")
	ErrInvalidTimestamp = errors.New("ingest: PublishedAt is not a valid timestamp")
	ErrMissingDeviceID  = errors.New("ingest: DeviceId is required")
)

// Normalize turns a raw ingest request into a persistable Event, assigning
// a fresh unique id. It never touches the store: a request that fails here
// causes no side effects.
func Normalize(req models.IngestRequest) (models.Event, error) {
	if req.Data == "" {
		return models.Event{}, ErrMissingData
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(req.Data), &data); err != nil {
		return models.Event{}, ErrInvalidJSON
	}
	if data == nil {
		// "null" decodes without error but carries no readings.
		return models.Event{}, ErrMissingData
	}

	if req.DeviceID == "" {
		return models.Event{}, ErrMissingDeviceID
	}

	publishedAt, err := timefmt.Parse(req.PublishedAt)
	if err != nil {
		return models.Event{}, ErrInvalidTimestamp
	}

	return models.Event{
		ID:          uuid.New().String(),
		EventID:     req.EventID,
		Name:        req.Event,
		Data:        data,
		DeviceID:    req.DeviceID,
		PublishedAt: publishedAt,
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		FwVersion:   req.FwVersion,
	}, nil
}
