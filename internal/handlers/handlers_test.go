package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/handlers"
	"github.com/iotcloud/device-events-service/internal/models"
	"github.com/iotcloud/device-events-service/internal/query"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeStore records store calls and serves canned results.
type fakeStore struct {
	created   []models.Event
	createErr error

	queries   []docstore.Query
	searchRes []json.RawMessage
	searchErr error
}

func (f *fakeStore) Create(_ context.Context, e models.Event) error {
	f.created = append(f.created, e)
	return f.createErr
}

func (f *fakeStore) Search(_ context.Context, q docstore.Query) ([]json.RawMessage, error) {
	f.queries = append(f.queries, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRes, nil
}

func newRouter(st *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	qb := query.NewBuilder(docstore.EventsTable,
		query.WithNow(func() time.Time { return fixedNow }))
	handlers.RegisterEventRoutes(r, st, zap.NewNop())
	handlers.RegisterQueryRoutes(r, st, qb, zap.NewNop())
	return r
}

func postEvent(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIngest_ValidPayloadStoresNormalizedEvent(t *testing.T) {
	st := &fakeStore{}
	r := newRouter(st)

	w := postEvent(t, r, `{
		"EventId": "evt-42",
		"Event": "sensor/reading",
		"DeviceId": "dev1",
		"PublishedAt": "2024-01-01T00:00:00",
		"Data": "{\"pV\":3.3,\"ts\":1704067200}",
		"userid": "user-7",
		"ProductId": "prod-1",
		"FwVersion": "1.4.2"
	}`)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, st.created, 1)

	e := st.created[0]
	require.NotEmpty(t, e.ID)
	require.Equal(t, "evt-42", e.EventID)
	require.Equal(t, "sensor/reading", e.Name)
	require.Equal(t, "dev1", e.DeviceID)
	require.Equal(t, "user-7", e.UserID)
	require.True(t, e.PublishedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 3.3, e.Data["pV"])
}

func TestIngest_EmptyDataRejectedWithoutStoreCall(t *testing.T) {
	st := &fakeStore{}
	w := postEvent(t, newRouter(st), `{"DeviceId":"dev1","PublishedAt":"2024-01-01T00:00:00Z","Data":""}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Data is required."}`, w.Body.String())
	require.Empty(t, st.created)
}

func TestIngest_MalformedDataJSONRejectedWithoutStoreCall(t *testing.T) {
	st := &fakeStore{}
	w := postEvent(t, newRouter(st), `{"DeviceId":"dev1","PublishedAt":"2024-01-01T00:00:00Z","Data":"{broken"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Data field is not valid JSON."}`, w.Body.String())
	require.Empty(t, st.created)
}

func TestIngest_MissingDeviceIDRejected(t *testing.T) {
	st := &fakeStore{}
	w := postEvent(t, newRouter(st), `{"PublishedAt":"2024-01-01T00:00:00Z","Data":"{\"pV\":1}"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"DeviceId is required."}`, w.Body.String())
	require.Empty(t, st.created)
}

func TestIngest_InvalidPublishedAtRejected(t *testing.T) {
	st := &fakeStore{}
	w := postEvent(t, newRouter(st), `{"DeviceId":"dev1","PublishedAt":"yesterday","Data":"{\"pV\":1}"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"PublishedAt is not a valid timestamp."}`, w.Body.String())
	require.Empty(t, st.created)
}

func TestIngest_UnparseableBodyRejected(t *testing.T) {
	st := &fakeStore{}
	w := postEvent(t, newRouter(st), `{not json`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, st.created)
}

func TestIngest_DuplicateIDIsConflict(t *testing.T) {
	st := &fakeStore{createErr: docstore.ErrConflict}
	w := postEvent(t, newRouter(st), `{"DeviceId":"dev1","PublishedAt":"2024-01-01T00:00:00Z","Data":"{\"pV\":1}"}`)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestIngest_StoreFailureIsServerError(t *testing.T) {
	st := &fakeStore{createErr: &docstore.StoreError{Op: "create", Code: "08006"}}
	w := postEvent(t, newRouter(st), `{"DeviceId":"dev1","PublishedAt":"2024-01-01T00:00:00Z","Data":"{\"pV\":1}"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEventData_FilterPassedAsBoundParam(t *testing.T) {
	st := &fakeStore{searchRes: []json.RawMessage{json.RawMessage(`{"deviceId":"dev1"}`)}}
	w := get(t, newRouter(st), "/api/events/event-data?deviceId=dev1")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[{"deviceId":"dev1"}]`, w.Body.String())

	require.Len(t, st.queries, 1)
	require.Contains(t, st.queries[0].SQL, `doc->>'deviceId' = $1`)
	require.Equal(t, []any{"dev1"}, st.queries[0].Args)
}

func TestEventData_NoFiltersRunsCountQuery(t *testing.T) {
	st := &fakeStore{searchRes: []json.RawMessage{json.RawMessage(`7`)}}
	w := get(t, newRouter(st), "/api/events/event-data")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[7]`, w.Body.String())
	require.Contains(t, st.queries[0].SQL, "count(*)")
}

func TestDeviceData_DefaultsRangeToLastHour(t *testing.T) {
	st := &fakeStore{searchRes: []json.RawMessage{}}
	w := get(t, newRouter(st), "/api/events/device-data?deviceId=dev1")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, st.queries, 1)
	require.Equal(t, fixedNow.Add(-time.Hour), st.queries[0].Args[1])
	require.Equal(t, fixedNow, st.queries[0].Args[2])
}

func TestDeviceData_MissingDeviceIDRejectedWithoutQuery(t *testing.T) {
	st := &fakeStore{}
	w := get(t, newRouter(st), "/api/events/device-data")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"deviceId is required."}`, w.Body.String())
	require.Empty(t, st.queries)
}

func TestDeviceData_MalformedRangeRejectedWithoutQuery(t *testing.T) {
	st := &fakeStore{}
	w := get(t, newRouter(st), "/api/events/device-data?deviceId=dev1&startDate=bad-date")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t,
		`{"error":"Invalid startDate or endDate format. Expected an ISO-8601 date-time."}`,
		w.Body.String())
	require.Empty(t, st.queries)
}

func TestFieldData_EpochBoundsAndBoundFieldName(t *testing.T) {
	st := &fakeStore{searchRes: []json.RawMessage{}}
	w := get(t, newRouter(st),
		"/api/events/field-data?deviceId=dev1&field=pV&startDate=2024-01-01T00:00:00Z&endDate=2024-01-01T01:00:00Z")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, st.queries, 1)
	require.Equal(t, []any{"dev1", "pV", int64(1704067200), int64(1704070800)}, st.queries[0].Args)
}

func TestFieldData_UnsafeFieldNameRejectedWithoutQuery(t *testing.T) {
	st := &fakeStore{}
	w := get(t, newRouter(st), "/api/events/field-data?deviceId=dev1&field=pV%3BDROP")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, st.queries)
}

func TestQuery_StoreFailureIsServerError(t *testing.T) {
	st := &fakeStore{searchErr: &docstore.StoreError{Op: "query", Code: "08006"}}
	w := get(t, newRouter(st), "/api/events/event-data?deviceId=dev1")

	require.Equal(t, http.StatusInternalServerError, w.Code)
}
