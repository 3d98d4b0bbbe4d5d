package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	router  *gin.Engine
	store   *testCounterStore
	enq     *testEnqueuer
	history *testHistoryStore
}

func newHandlerFixture() *handlerFixture {
	store := newTestCounterStore()
	enq := &testEnqueuer{}
	history := &testHistoryStore{}

	gate := NewGate(NewLimiter(store), enq, DefaultQuotaTable())
	handler := NewHandler(gate, history)

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))

	return &handlerFixture{router: r, store: store, enq: enq, history: history}
}

func (f *handlerFixture) post(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSendAccepted(t *testing.T) {
	f := newHandlerFixture()

	w := f.post(t, map[string]any{
		"userId":  "u1",
		"type":    "email",
		"message": "hello",
		"email":   "u1@example.com",
	})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    SendResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "queued", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.ID)
}

func TestSendMissingMessageReturns400(t *testing.T) {
	f := newHandlerFixture()

	w := f.post(t, map[string]any{"userId": "u1", "type": "email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.enq.enqueued)
}

func TestSendRateLimitedThenResetScenario(t *testing.T) {
	f := newHandlerFixture()

	body := map[string]any{
		"userId":  "u1",
		"type":    "sms",
		"phone":   "+15550100",
		"message": "hi",
	}

	// SMS tier allows 1 per minute: first accepted, second rejected.
	w := f.post(t, body)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = f.post(t, body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		Error struct {
			Message           string `json:"message"`
			RetryAfterSeconds int    `json:"retry_after_seconds"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error.Message, "per minute")
	assert.Equal(t, 60, resp.Error.RetryAfterSeconds)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Administrative reset clears the counters; the next send passes.
	w = f.do(t, http.MethodDelete, "/api/v1/users/u1/limits/sms")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.post(t, body)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSendQueueDownReturns503(t *testing.T) {
	f := newHandlerFixture()
	f.enq.err = errors.New("broker down")

	w := f.post(t, map[string]any{"userId": "u1", "type": "email", "message": "hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	counts, err := f.store.Counts(context.Background(), "u1", ChannelEmail)
	require.NoError(t, err)
	assert.Zero(t, counts.Minute)
}

func TestListUserNotificationsFiltersAndOrders(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, userID := range []string{"u1", "u2", "u1"} {
		require.NoError(t, f.history.Append(ctx, DeliveryRecord{
			ID:        string(rune('a' + i)),
			UserID:    userID,
			Type:      ChannelEmail,
			Message:   "m",
			Status:    StatusDelivered,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	w := f.do(t, http.MethodGet, "/api/v1/users/u1/notifications")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []DeliveryRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, rec := range resp.Data {
		assert.Equal(t, "u1", rec.UserID)
	}
}

func TestClearNotifications(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()

	require.NoError(t, f.history.Append(ctx, DeliveryRecord{ID: "a", UserID: "u1"}))

	w := f.do(t, http.MethodDelete, "/api/v1/notifications")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/notifications")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []DeliveryRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestGetLimitsReportsUsage(t *testing.T) {
	f := newHandlerFixture()

	// One accepted sms consumes one unit in every window.
	w := f.post(t, map[string]any{"userId": "u1", "type": "sms", "phone": "+15550100", "message": "hi"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/u1/limits/sms")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			UserID  string        `json:"user_id"`
			Type    string        `json:"type"`
			Windows []WindowUsage `json:"windows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "u1", resp.Data.UserID)
	require.Len(t, resp.Data.Windows, 3)
	assert.Equal(t, int64(1), resp.Data.Windows[0].Count)
	assert.Equal(t, 1, resp.Data.Windows[0].Limit)
}
