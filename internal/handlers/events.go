package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/ingest"
	"github.com/iotcloud/device-events-service/internal/models"
)

// Store is what the handlers need from the persistence layer.
type Store interface {
	Create(ctx context.Context, e models.Event) error
	Search(ctx context.Context, q docstore.Query) ([]json.RawMessage, error)
}

// RegisterEventRoutes registers the ingestion endpoint.
//
// POST /api/events
// - 204 after the event is durably stored
// - 400 on any validation failure, before any store call
// - 409 when the event id already exists for the device
func RegisterEventRoutes(r gin.IRoutes, st Store, log *zap.Logger) {
	r.POST("/api/events", func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		event, err := ingest.Normalize(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
			return
		}

		if err := st.Create(c.Request.Context(), event); err != nil {
			if errors.Is(err, docstore.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "event already exists"})
				return
			}
			log.Error("event insert failed",
				zap.String("deviceId", event.DeviceID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Status(http.StatusNoContent)
	})
}

// validationMessage maps normalization failures onto the client-facing
// wording the publisher integration expects.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, ingest.ErrMissingData):
		return "Data is required."
	case errors.Is(err, ingest.ErrInvalidJSON):
		return "Data field is not valid JSON."
	case errors.Is(err, ingest.ErrInvalidTimestamp):
		return "PublishedAt is not a valid timestamp."
	case errors.Is(err, ingest.ErrMissingDeviceID):
		return "DeviceId is required."
	}
	return err.Error()
}
