package docstore

import (
	"context"
	"encoding/json"

	"github.com/iotcloud/device-events-service/internal/models"
)

// EventsTable is the collection holding telemetry events.
const EventsTable = "events"

// EventStore binds the generic collection to the Event entity, partitioned
// by device id.
type EventStore struct {
	client *Client
	col    *Collection[models.Event]
}

// NewEventStore builds the event collection with explicit id and
// partition-key accessors.
func NewEventStore(client *Client) *EventStore {
	col := NewCollection(client, EventsTable,
		func(e models.Event) string { return e.ID },
		func(e models.Event) string { return e.DeviceID },
	)
	return &EventStore{client: client, col: col}
}

// Create persists one event in its device partition.
func (s *EventStore) Create(ctx context.Context, e models.Event) error {
	return s.col.Create(ctx, e)
}

// GetByID point-reads one event; found=false when it does not exist.
func (s *EventStore) GetByID(ctx context.Context, id, deviceID string) (models.Event, bool, error) {
	return s.col.GetByID(ctx, id, deviceID)
}

// Search runs a builder-produced query and returns the raw result
// documents for the HTTP layer to serve as-is.
func (s *EventStore) Search(ctx context.Context, q Query) ([]json.RawMessage, error) {
	return s.client.RawQuery(ctx, q)
}

// All returns every stored event.
func (s *EventStore) All(ctx context.Context) ([]models.Event, error) {
	return s.col.QueryAll(ctx)
}
