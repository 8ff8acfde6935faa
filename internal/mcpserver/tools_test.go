package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervalsmcp/intervals-mcp-server/internal/auth"
	"github.com/intervalsmcp/intervals-mcp-server/internal/intervals"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient builds an intervals client pointed at a fake API.
func testClient(t *testing.T, handler http.HandlerFunc) *intervals.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return intervals.NewClient(srv.URL, "i12345", "test-key", testLogger())
}

func readCtx() context.Context {
	return auth.WithContext(context.Background(), &auth.Context{
		Type:   auth.TypeOAuth,
		Scopes: []string{"intervals:read"},
	})
}

func writeCtx() context.Context {
	return auth.WithContext(context.Background(), &auth.Context{
		Type:   auth.TypeOAuth,
		Scopes: []string{"intervals:read", "intervals:write"},
	})
}

func apiKeyCtx() context.Context {
	return auth.WithContext(context.Background(), &auth.Context{Type: auth.TypeAPIKey})
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "first content is not TextContent")
	return tc.Text
}

// --- get_activities ---

func TestGetActivities(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/activities", r.URL.Path)
		w.Write([]byte(`[
			{"id": "a1", "name": "Morning Ride", "type": "Ride", "distance": 40000},
			{"id": "a2", "name": "", "type": "Ride"},
			{"id": "a3", "name": "Evening Run", "type": "Run", "distance": 8000}
		]`))
	})

	handler := getActivitiesHandler(client)
	result, _, err := handler(readCtx(), nil, ActivitiesInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Morning Ride")
	assert.Contains(t, text, "Evening Run")
	assert.NotContains(t, text, "ID: a2", "unnamed activities are filtered by default")
}

func TestGetActivities_IncludeUnnamed(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "a2", "name": "", "type": "Ride"}]`))
	})

	handler := getActivitiesHandler(client)
	result, _, err := handler(readCtx(), nil, ActivitiesInput{IncludeUnnamed: true})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Activity: Unnamed")
}

func TestGetActivities_PermissionDenied(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called without the read scope")
	})

	handler := getActivitiesHandler(client)
	result, _, err := handler(context.Background(), nil, ActivitiesInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Permission denied")
}

func TestGetActivities_APIKeyContextAllowed(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "a1", "name": "Ride", "type": "Ride"}]`))
	})

	handler := getActivitiesHandler(client)
	result, _, err := handler(apiKeyCtx(), nil, ActivitiesInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestGetActivities_UpstreamError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	handler := getActivitiesHandler(client)
	result, _, err := handler(readCtx(), nil, ActivitiesInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Please check your API key")
}

// --- get_activity_details ---

func TestGetActivityDetails_WithZones(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity/a1", r.URL.Path)
		w.Write([]byte(`{
			"id": "a1", "name": "Intervals Session", "type": "Ride",
			"zones": {
				"power": [{"number": 1, "secondsInZone": 600}, {"number": 2, "secondsInZone": 1200}],
				"hr": [{"number": 1, "secondsInZone": 900}]
			}
		}`))
	})

	handler := getActivityDetailsHandler(client)
	result, _, err := handler(readCtx(), nil, ActivityInput{ActivityID: "a1"})
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Intervals Session")
	assert.Contains(t, text, "Power Zones:")
	assert.Contains(t, text, "Zone 2: 1200 seconds")
	assert.Contains(t, text, "Heart Rate Zones:")
}

// --- get_activity_intervals ---

func TestGetActivityIntervals(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity/a1/intervals", r.URL.Path)
		w.Write([]byte(`{"id": "a1", "analyzed": true, "icu_intervals": [{"label": "Rep 1", "average_watts": 300}]}`))
	})

	handler := getActivityIntervalsHandler(client)
	result, _, err := handler(readCtx(), nil, ActivityInput{ActivityID: "a1"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Rep 1")
}

func TestGetActivityIntervals_NoData(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "a1"}`))
	})

	handler := getActivityIntervalsHandler(client)
	result, _, err := handler(readCtx(), nil, ActivityInput{ActivityID: "a1"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No interval data")
}

// --- get_events / get_event_by_id ---

func TestGetEvents(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/events", r.URL.Path)
		w.Write([]byte(`[{"id": 7, "date": "2026-09-01", "name": "Threshold", "workout": {"id": 1}}]`))
	})

	handler := getEventsHandler(client)
	result, _, err := handler(readCtx(), nil, EventsInput{})
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Events:")
	assert.Contains(t, text, "Name: Threshold")
	assert.Contains(t, text, "Type: Workout")
}

func TestGetEvents_Empty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	handler := getEventsHandler(client)
	result, _, err := handler(readCtx(), nil, EventsInput{})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No events found")
}

func TestGetEventByID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/events/7", r.URL.Path)
		w.Write([]byte(`{"id": 7, "date": "2026-09-01", "name": "Threshold"}`))
	})

	handler := getEventByIDHandler(client)
	result, _, err := handler(readCtx(), nil, EventInput{EventID: "7"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Event Details:")
}

// --- get_wellness_data ---

func TestGetWellness_DateKeyedResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "wellness")
		w.Write([]byte(`{"2026-08-26": {"ctl": 75, "restingHR": 48}}`))
	})

	handler := getWellnessHandler(client)
	result, _, err := handler(readCtx(), nil, WellnessInput{})
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Date: 2026-08-26", "date key is injected into the entry")
	assert.Contains(t, text, "Fitness (CTL): 75")
}

// --- add_or_update_event ---

func TestAddOrUpdateEvent_Create(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id": "e1"}`))
	})

	handler := addOrUpdateEventHandler(client)
	result, _, err := handler(writeCtx(), nil, AddEventInput{
		Name:       "Morning jog",
		StartDate:  "2026-09-01",
		MovingTime: 3600,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "2026-09-01T00:00:00", gotBody["start_date_local"])
	assert.Equal(t, "WORKOUT", gotBody["category"])
	assert.Equal(t, "Run", gotBody["type"], "type inferred from name")
	assert.Contains(t, resultText(t, result), "Successfully created event")
}

func TestAddOrUpdateEvent_UpdateByID(t *testing.T) {
	var gotMethod, gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"id": "e9"}`))
	})

	handler := addOrUpdateEventHandler(client)
	result, _, err := handler(writeCtx(), nil, AddEventInput{
		Name:        "FTP test",
		WorkoutType: "Ride",
		EventID:     "e9",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/athlete/i12345/events/e9", gotPath)
	assert.Contains(t, resultText(t, result), "Successfully updated event")
}

func TestAddOrUpdateEvent_RequiresWriteScope(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called without the write scope")
	})

	handler := addOrUpdateEventHandler(client)
	result, _, err := handler(readCtx(), nil, AddEventInput{Name: "Ride"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Permission denied")
}

// --- update_event ---

func TestUpdateEvent_MergesExisting(t *testing.T) {
	var putBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id": "e9", "name": "Old Name", "type": "Ride", "distance": 20000}`))
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			w.Write([]byte(`{"id": "e9"}`))
		}
	})

	handler := updateEventHandler(client)
	result, _, err := handler(writeCtx(), nil, UpdateEventInput{
		EventID: "e9",
		Name:    "New run workout",
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	assert.Equal(t, "New run workout", putBody["name"])
	assert.Equal(t, "Run", putBody["type"], "type re-resolved from the new name")
	assert.Equal(t, float64(20000), putBody["distance"], "untouched fields are preserved")
}

func TestUpdateEvent_NoFields(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "e9"}`))
	})

	handler := updateEventHandler(client)
	result, _, err := handler(writeCtx(), nil, UpdateEventInput{EventID: "e9"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "No fields provided")
}

// --- delete tools ---

func TestDeleteEvent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"deleted": true}`))
	})

	handler := deleteEventHandler(client)
	result, _, err := handler(writeCtx(), nil, EventInput{EventID: "e9"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestDeleteEvent_RequiresWriteScope(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called without the write scope")
	})

	handler := deleteEventHandler(client)
	result, _, err := handler(readCtx(), nil, EventInput{EventID: "e9"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDeleteEventsByDateRange(t *testing.T) {
	var deleted []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = append(deleted, r.URL.Path)
			if strings.HasSuffix(r.URL.Path, "/2") {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`[{"id": 1}, {"id": 2}, {"id": 3}]`))
	})

	handler := deleteEventsByDateRangeHandler(client)
	result, _, err := handler(writeCtx(), nil, DateRangeInput{
		StartDate: "2026-08-01",
		EndDate:   "2026-08-31",
	})
	require.NoError(t, err)

	assert.Len(t, deleted, 3)
	text := resultText(t, result)
	assert.Contains(t, text, "Deleted 2 events")
	assert.Contains(t, text, "Failed to delete 1 events")
}

func TestDeleteEventsByDateRange_InvalidDate(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called with invalid dates")
	})

	handler := deleteEventsByDateRangeHandler(client)
	result, _, err := handler(writeCtx(), nil, DateRangeInput{
		StartDate: "08/01/2026",
		EndDate:   "2026-08-31",
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid date")
}

// --- helpers ---

func TestResolveWorkoutType(t *testing.T) {
	assert.Equal(t, "Run", resolveWorkoutType("Easy morning jog", ""))
	assert.Equal(t, "Swim", resolveWorkoutType("Pool session", ""))
	assert.Equal(t, "Ride", resolveWorkoutType("Something else", ""))
	assert.Equal(t, "Row", resolveWorkoutType("whatever", "Row"), "explicit type wins")
	// Keyword matching is substring-based and Ride is checked first, so
	// "strides" matches "ride" before "run" is considered.
	assert.Equal(t, "Ride", resolveWorkoutType("Morning run with strides", ""))
}

func TestNormalizeStartDate(t *testing.T) {
	assert.Equal(t, "2026-09-01T00:00:00", normalizeStartDate("2026-09-01"))
	assert.Equal(t, "2026-09-01T06:30:00", normalizeStartDate("2026-09-01T06:30:00"))
}
