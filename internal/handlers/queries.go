package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/query"
)

const invalidRangeMessage = "Invalid startDate or endDate format. Expected an ISO-8601 date-time."

// RegisterQueryRoutes registers the read-path endpoints. Each one builds a
// query from the request parameters and serves the raw result documents.
//
// GET /api/events/event-data   ?deviceId&userId&eventName
// GET /api/events/device-data  ?deviceId&startDate&endDate
// GET /api/events/field-data   ?deviceId&field&startDate&endDate
func RegisterQueryRoutes(r gin.IRoutes, st Store, qb *query.Builder, log *zap.Logger) {
	// Attribute filters; with none supplied this returns [count].
	r.GET("/api/events/event-data", func(c *gin.Context) {
		q := qb.AttributeFilter(c.Query("deviceId"), c.Query("userId"), c.Query("eventName"))
		serve(c, st, q, log)
	})

	// Full documents for one device within a PublishedAt range;
	// defaults to the last hour when either boundary is absent.
	r.GET("/api/events/device-data", func(c *gin.Context) {
		q, err := qb.TimeRange(c.Query("deviceId"), c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": rangeMessage(err)})
			return
		}
		serve(c, st, q, log)
	})

	// One Data field plus its ts, filtered by Data.ts epoch seconds.
	r.GET("/api/events/field-data", func(c *gin.Context) {
		q, err := qb.FieldProjection(
			c.Query("deviceId"), c.Query("field"),
			c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": rangeMessage(err)})
			return
		}
		serve(c, st, q, log)
	})
}

func serve(c *gin.Context, st Store, q docstore.Query, log *zap.Logger) {
	docs, err := st.Search(c.Request.Context(), q)
	if err != nil {
		log.Error("event query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func rangeMessage(err error) string {
	switch {
	case errors.Is(err, query.ErrDeviceIDRequired):
		return "deviceId is required."
	case errors.Is(err, query.ErrInvalidRange):
		return invalidRangeMessage
	case errors.Is(err, query.ErrUnsafeFieldName):
		return "field must contain only letters, digits, or underscores."
	}
	return err.Error()
}
