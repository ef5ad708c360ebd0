package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/Harshitk-cp/concierge/internal/notify"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKB = `
Community: Oakwood
Amenities: Pool, Gym
Schedule: Pool | Mon 9-10, Mon 10-11

Community: Riverside
Amenities: Tennis Court
Schedule: Tennis Court | Sat 10:00-11:00
`

type failingNotifier struct{}

func (failingNotifier) SendBookingConfirmation(ctx context.Context, b *domain.Booking) error {
	return errors.New("smtp: 421 service not available")
}

func newTestApp(t *testing.T, adminKey string, notifier domain.Notifier) *App {
	t.Helper()
	t.Setenv("ADMIN_API_KEY", adminKey)
	t.Setenv("SINK_RETRIES", "0")

	kb, err := knowledge.Load(strings.NewReader(testKB))
	require.NoError(t, err)

	ctx := context.Background()
	bookings, closeFn, err := store.OpenBookings(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(closeFn)
	require.NoError(t, bookings.EnsureSchema(ctx))

	if notifier == nil {
		notifier = notify.NewLogNotifier(zap.NewNop())
	}

	return NewApp(Deps{
		Knowledge: kb,
		Sessions:  store.NewMemorySessionStore(),
		Bookings:  bookings,
		Notifier:  notifier,
		Logger:    zap.NewNop(),
	})
}

func do(t *testing.T, app *App, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func chat(t *testing.T, app *App, sessionID, message string) (int, map[string]json.RawMessage) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	require.NoError(t, err)

	rec := do(t, app, http.MethodPost, "/chat", string(payload), "")
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func textResponse(t *testing.T, body map[string]json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(body["response"], &s), "response is not a plain string: %s", body["response"])
	return s
}

func TestChat_Conversation(t *testing.T) {
	app := newTestApp(t, "", nil)

	code, body := chat(t, app, "s1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, textResponse(t, body), "Welcome to Amenity Booking")

	_, body = chat(t, app, "s1", "oakwood")
	assert.Equal(t, "What amenity would you like to book?", textResponse(t, body))

	_, body = chat(t, app, "s1", "Pool")
	var sel struct {
		Type    string   `json:"type"`
		Message string   `json:"message"`
		Slots   []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(body["response"], &sel))
	assert.Equal(t, "slot_selection", sel.Type)
	assert.Equal(t, "Available time slots for Pool in Oakwood:", sel.Message)
	assert.Equal(t, []string{"Mon 9-10", "Mon 10-11"}, sel.Slots)

	_, body = chat(t, app, "s1", "Mon 10-11")
	assert.Equal(t, "Please provide your email address to confirm.", textResponse(t, body))

	code, body = chat(t, app, "s1", "a@b.com")
	assert.Equal(t, http.StatusOK, code)
	msg := textResponse(t, body)
	assert.Contains(t, msg, "Booking confirmed for Pool in Oakwood at Mon 10-11")
	assert.Contains(t, msg, "a@b.com")
}

func TestChat_BadRequests(t *testing.T) {
	app := newTestApp(t, "", nil)

	rec := do(t, app, http.MethodPost, "/chat", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodPost, "/chat", `{"message":"Oakwood"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_id is required")

	rec = do(t, app, http.MethodGet, "/chat", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChat_SinkFailureReturnsBadGateway(t *testing.T) {
	app := newTestApp(t, "", failingNotifier{})

	chat(t, app, "s1", "Oakwood")
	chat(t, app, "s1", "Pool")
	chat(t, app, "s1", "Mon 9-10")

	code, body := chat(t, app, "s1", "a@b.com")
	assert.Equal(t, http.StatusBadGateway, code)
	msg := textResponse(t, body)
	assert.NotContains(t, msg, "confirmed")
	assert.Contains(t, msg, "Sorry")
	assert.Contains(t, string(body["error"]), "booking could not be completed")

	rec := do(t, app, http.MethodGet, "/metrics", "", "")
	var metrics map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, float64(1), metrics["booking_failures"])
	assert.Equal(t, float64(0), metrics["bookings"])
}

func TestCommunities(t *testing.T) {
	app := newTestApp(t, "", nil)

	rec := do(t, app, http.MethodGet, "/v1/communities", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Communities []struct {
			Name      string `json:"name"`
			Amenities []struct {
				Name  string   `json:"name"`
				Slots []string `json:"slots"`
			} `json:"amenities"`
		} `json:"communities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Communities, 2)
	assert.Equal(t, "Oakwood", body.Communities[0].Name)
	require.Len(t, body.Communities[0].Amenities, 2)
	assert.Equal(t, []string{"Mon 9-10", "Mon 10-11"}, body.Communities[0].Amenities[0].Slots)
	assert.Equal(t, "Gym", body.Communities[0].Amenities[1].Name)
	assert.NotNil(t, body.Communities[0].Amenities[1].Slots)
	assert.Empty(t, body.Communities[0].Amenities[1].Slots)
}

func TestAdminRoutes_DisabledWithoutKey(t *testing.T) {
	app := newTestApp(t, "", nil)

	chat(t, app, "s1", "Oakwood")
	rec := do(t, app, http.MethodGet, "/v1/sessions/s1/history", "", "anything")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t, "admin-key", nil)

	chat(t, app, "s1", "Oakwood")

	rec := do(t, app, http.MethodGet, "/v1/sessions/s1/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/sessions/s1/history", "", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		SessionID string `json:"session_id"`
		History   []struct {
			Role    string `json:"role"`
			Message string `json:"message"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, "s1", hist.SessionID)
	require.Len(t, hist.History, 2)
	assert.Equal(t, "user", hist.History[0].Role)
	assert.Equal(t, "Oakwood", hist.History[0].Message)
	assert.Equal(t, "agent", hist.History[1].Role)

	rec = do(t, app, http.MethodGet, "/v1/sessions/nobody/history", "", "admin-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	chat(t, app, "s1", "Pool")
	chat(t, app, "s1", "Mon 9-10")
	chat(t, app, "s1", "a@b.com")

	rec = do(t, app, http.MethodGet, "/v1/bookings?email=a@b.com", "", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bookings, 1)
	b := list.Bookings[0]
	assert.Equal(t, "Oakwood", b.Community)
	assert.Equal(t, "Pool", b.Amenity)
	assert.Equal(t, "Mon 9-10", b.Slot)

	rec = do(t, app, http.MethodGet, "/v1/bookings/"+b.Reference.String(), "", "admin-key")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/bookings/not-a-uuid", "", "admin-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/bookings/00000000-0000-0000-0000-000000000001", "", "admin-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/bookings", "", "admin-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	app := newTestApp(t, "", nil)

	rec := do(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, app, http.MethodGet, "/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, "", nil)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://widget.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
