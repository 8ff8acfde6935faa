// Package mcpserver registers MCP tools that expose Intervals.icu data.
// It adapts the intervals client to the MCP SDK's tool handler interface
// and enforces per-tool OAuth scope checks.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"

	"github.com/intervalsmcp/intervals-mcp-server/internal/auth"
	"github.com/intervalsmcp/intervals-mcp-server/internal/intervals"
)

const (
	scopeRead  = "intervals:read"
	scopeWrite = "intervals:write"

	defaultActivityLimit = 10
)

// RegisterTools adds all Intervals.icu tools to the given MCP server.
func RegisterTools(server *mcp.Server, client *intervals.Client) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activities",
		Description: "Get a list of activities for an athlete from Intervals.icu. Defaults to the last 30 days. Unnamed activities are filtered out unless include_unnamed is set.",
	}, getActivitiesHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activity_details",
		Description: "Get detailed information for a specific activity from Intervals.icu, including power, heart rate, and training metrics.",
	}, getActivityDetailsHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activity_intervals",
		Description: "Get the interval analysis for a specific activity, with power, heart rate, cadence, speed, and environmental data per interval plus grouped intervals.",
	}, getActivityIntervalsHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_events",
		Description: "Get calendar events (planned workouts and races) for an athlete from Intervals.icu. Defaults to the next 30 days.",
	}, getEventsHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_event_by_id",
		Description: "Get detailed information for a specific calendar event from Intervals.icu.",
	}, getEventByIDHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_wellness_data",
		Description: "Get wellness data for an athlete from Intervals.icu, including training metrics, vitals, sleep, and custom fields. Defaults to the last 30 days.",
	}, getWellnessHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_or_update_event",
		Description: "Create a calendar event (planned workout) on Intervals.icu, or replace one when event_id is given. The workout description uses the Intervals.icu workout step syntax.",
	}, addOrUpdateEventHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_event",
		Description: "Partially update an existing Intervals.icu calendar event. Only the provided fields change; the rest of the event is preserved.",
	}, updateEventHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_event",
		Description: "Delete a single calendar event from Intervals.icu by ID.",
	}, deleteEventHandler(client))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_events_by_date_range",
		Description: "Delete all Intervals.icu calendar events in a date range. Reports how many events were deleted and which failed.",
	}, deleteEventsByDateRangeHandler(client))
}

// --- Input types ---
// The MCP SDK infers JSON schema from these struct types via jsonschema tags.

// ActivitiesInput holds parameters for get_activities.
type ActivitiesInput struct {
	AthleteID      string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey         string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
	StartDate      string `json:"start_date,omitempty" jsonschema:"start date YYYY-MM-DD, defaults to 30 days ago"`
	EndDate        string `json:"end_date,omitempty" jsonschema:"end date YYYY-MM-DD, defaults to today"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum number of activities, defaults to 10"`
	IncludeUnnamed bool   `json:"include_unnamed,omitempty" jsonschema:"include unnamed activities, defaults to false"`
}

// ActivityInput holds parameters for single-activity tools.
type ActivityInput struct {
	ActivityID string `json:"activity_id" jsonschema:"required,activity ID"`
	APIKey     string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
}

// EventsInput holds parameters for get_events.
type EventsInput struct {
	AthleteID string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey    string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
	StartDate string `json:"start_date,omitempty" jsonschema:"start date YYYY-MM-DD, defaults to today"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"end date YYYY-MM-DD, defaults to 30 days from today"`
}

// EventInput holds parameters for get_event_by_id and delete_event.
type EventInput struct {
	EventID   string `json:"event_id" jsonschema:"required,event ID"`
	AthleteID string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey    string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
}

// WellnessInput holds parameters for get_wellness_data.
type WellnessInput struct {
	AthleteID           string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey              string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
	StartDate           string `json:"start_date,omitempty" jsonschema:"start date YYYY-MM-DD, defaults to 30 days ago"`
	EndDate             string `json:"end_date,omitempty" jsonschema:"end date YYYY-MM-DD, defaults to today"`
	IncludeCustomFields *bool  `json:"include_custom_fields,omitempty" jsonschema:"include custom wellness fields, defaults to true"`
}

// AddEventInput holds parameters for add_or_update_event.
type AddEventInput struct {
	Name        string `json:"name" jsonschema:"required,name of the workout"`
	WorkoutType string `json:"workout_type,omitempty" jsonschema:"workout type (Ride, Run, Swim, Walk, Row), inferred from the name when omitted"`
	AthleteID   string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey      string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
	EventID     string `json:"event_id,omitempty" jsonschema:"existing event ID to replace instead of creating"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"start date YYYY-MM-DD or ISO8601, defaults to today"`
	Description string `json:"description,omitempty" jsonschema:"workout description including step definitions"`
	MovingTime  int    `json:"moving_time,omitempty" jsonschema:"expected moving time in seconds"`
	Distance    int    `json:"distance,omitempty" jsonschema:"expected distance in meters"`
}

// UpdateEventInput holds parameters for update_event.
type UpdateEventInput struct {
	EventID     string `json:"event_id" jsonschema:"required,event ID"`
	AthleteID   string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey      string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"start date YYYY-MM-DD or ISO8601"`
	Name        string `json:"name,omitempty" jsonschema:"new name"`
	Description string `json:"description,omitempty" jsonschema:"new description"`
	WorkoutType string `json:"workout_type,omitempty" jsonschema:"new workout type"`
	MovingTime  int    `json:"moving_time,omitempty" jsonschema:"expected moving time in seconds"`
	Distance    int    `json:"distance,omitempty" jsonschema:"expected distance in meters"`
}

// DateRangeInput holds parameters for delete_events_by_date_range.
type DateRangeInput struct {
	StartDate string `json:"start_date" jsonschema:"required,start date YYYY-MM-DD"`
	EndDate   string `json:"end_date" jsonschema:"required,end date YYYY-MM-DD"`
	AthleteID string `json:"athlete_id,omitempty" jsonschema:"athlete ID, defaults to the configured athlete"`
	APIKey    string `json:"api_key,omitempty" jsonschema:"Intervals.icu API key override"`
}

// --- Result helpers ---

// textResult wraps a plain text payload in a CallToolResult.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult returns a tool-level error the model sees as text. Scope
// and upstream API failures are reported this way rather than as
// protocol errors so the conversation can recover.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// checkScope enforces a scope requirement, converting a denial into a
// user-visible tool result.
func checkScope(ctx context.Context, scope string) *mcp.CallToolResult {
	if err := auth.RequireScope(ctx, scope); err != nil {
		return errorResult(fmt.Sprintf("Permission denied: %v", err))
	}
	return nil
}

// --- Handlers ---

func getActivitiesHandler(client *intervals.Client) mcp.ToolHandlerFor[ActivitiesInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivitiesInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		startDate := input.StartDate
		if startDate == "" {
			startDate = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
		}
		endDate := input.EndDate
		if endDate == "" {
			endDate = time.Now().Format("2006-01-02")
		}
		limit := input.Limit
		if limit <= 0 {
			limit = defaultActivityLimit
		}

		// Over-fetch when filtering unnamed activities so the requested
		// count can still be met.
		apiLimit := limit
		if !input.IncludeUnnamed {
			apiLimit = limit * 3
		}

		data, err := client.Activities(ctx, athleteID, input.APIKey, startDate, endDate, apiLimit)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching activities: %v", err)), nil, nil
		}

		activities := parseActivities(gjson.ParseBytes(data))
		if !input.IncludeUnnamed {
			activities = filterNamed(activities)
		}
		if len(activities) > limit {
			activities = activities[:limit]
		}

		if len(activities) == 0 {
			if input.IncludeUnnamed {
				return textResult(fmt.Sprintf("No valid activities found for athlete %s in the specified date range.", athleteID)), nil, nil
			}
			return textResult(fmt.Sprintf("No named activities found for athlete %s in the specified date range. Try with include_unnamed=true to see all activities.", athleteID)), nil, nil
		}

		var b strings.Builder
		b.WriteString("Activities:\n\n")
		for _, a := range activities {
			b.WriteString(intervals.FormatActivitySummary(a))
			b.WriteString("\n")
		}
		return textResult(b.String()), nil, nil
	}
}

// parseActivities extracts activity objects from a response that may be
// a list, a container object, or a single activity.
func parseActivities(result gjson.Result) []gjson.Result {
	if result.IsArray() {
		var out []gjson.Result
		for _, item := range result.Array() {
			if item.IsObject() {
				out = append(out, item)
			}
		}
		return out
	}
	if result.IsObject() {
		var out []gjson.Result
		result.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				for _, item := range value.Array() {
					if item.IsObject() {
						out = append(out, item)
					}
				}
				return false
			}
			return true
		})
		if len(out) == 0 && (result.Get("name").Exists() || result.Get("startTime").Exists() || result.Get("distance").Exists()) {
			out = append(out, result)
		}
		return out
	}
	return nil
}

func filterNamed(activities []gjson.Result) []gjson.Result {
	var out []gjson.Result
	for _, a := range activities {
		name := a.Get("name").String()
		if name != "" && name != "Unnamed" {
			out = append(out, a)
		}
	}
	return out
}

func getActivityDetailsHandler(client *intervals.Client) mcp.ToolHandlerFor[ActivityInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivityInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		data, err := client.Activity(ctx, input.ActivityID, input.APIKey)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching activity details: %v", err)), nil, nil
		}

		activity := gjson.ParseBytes(data)
		if activity.IsArray() {
			arr := activity.Array()
			if len(arr) == 0 {
				return textResult(fmt.Sprintf("No details found for activity %s.", input.ActivityID)), nil, nil
			}
			activity = arr[0]
		}
		if !activity.IsObject() {
			return textResult(fmt.Sprintf("No details found for activity %s.", input.ActivityID)), nil, nil
		}

		detail := intervals.FormatActivitySummary(activity)

		// Zone breakdowns appear only on the single-activity endpoint.
		if zones := activity.Get("zones"); zones.IsObject() {
			detail += "\nPower Zones:\n"
			for _, z := range zones.Get("power").Array() {
				detail += fmt.Sprintf("Zone %s: %s seconds\n", z.Get("number").String(), z.Get("secondsInZone").String())
			}
			detail += "\nHeart Rate Zones:\n"
			for _, z := range zones.Get("hr").Array() {
				detail += fmt.Sprintf("Zone %s: %s seconds\n", z.Get("number").String(), z.Get("secondsInZone").String())
			}
		}

		return textResult(detail), nil, nil
	}
}

func getActivityIntervalsHandler(client *intervals.Client) mcp.ToolHandlerFor[ActivityInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivityInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		data, err := client.ActivityIntervals(ctx, input.ActivityID, input.APIKey)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching intervals: %v", err)), nil, nil
		}

		result := gjson.ParseBytes(data)
		if !result.IsObject() || (!result.Get("icu_intervals").Exists() && !result.Get("icu_groups").Exists()) {
			return textResult(fmt.Sprintf("No interval data or unrecognized format for activity %s.", input.ActivityID)), nil, nil
		}

		return textResult(intervals.FormatIntervals(result)), nil, nil
	}
}

func getEventsHandler(client *intervals.Client) mcp.ToolHandlerFor[EventsInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventsInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		startDate := input.StartDate
		if startDate == "" {
			startDate = time.Now().Format("2006-01-02")
		}
		endDate := input.EndDate
		if endDate == "" {
			endDate = time.Now().AddDate(0, 0, 30).Format("2006-01-02")
		}

		data, err := client.Events(ctx, athleteID, input.APIKey, startDate, endDate)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching events: %v", err)), nil, nil
		}

		events := gjson.ParseBytes(data)
		if !events.IsArray() || len(events.Array()) == 0 {
			return textResult(fmt.Sprintf("No events found for athlete %s in the specified date range.", athleteID)), nil, nil
		}

		var b strings.Builder
		b.WriteString("Events:\n\n")
		for _, event := range events.Array() {
			if !event.IsObject() {
				continue
			}
			b.WriteString(intervals.FormatEventSummary(event))
			b.WriteString("\n\n")
		}
		return textResult(b.String()), nil, nil
	}
}

func getEventByIDHandler(client *intervals.Client) mcp.ToolHandlerFor[EventInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		data, err := client.Event(ctx, athleteID, input.EventID, input.APIKey)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching event details: %v", err)), nil, nil
		}

		event := gjson.ParseBytes(data)
		if !event.IsObject() {
			return textResult(fmt.Sprintf("No details found for event %s.", input.EventID)), nil, nil
		}
		return textResult(intervals.FormatEventDetails(event)), nil, nil
	}
}

func getWellnessHandler(client *intervals.Client) mcp.ToolHandlerFor[WellnessInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WellnessInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeRead); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		startDate := input.StartDate
		if startDate == "" {
			startDate = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
		}
		endDate := input.EndDate
		if endDate == "" {
			endDate = time.Now().Format("2006-01-02")
		}
		extended := true
		if input.IncludeCustomFields != nil {
			extended = *input.IncludeCustomFields
		}

		data, err := client.Wellness(ctx, athleteID, input.APIKey, startDate, endDate, extended)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching wellness data: %v", err)), nil, nil
		}

		result := gjson.ParseBytes(data)
		var b strings.Builder
		b.WriteString("Wellness Data:\n\n")

		wrote := false
		if result.IsArray() {
			for _, entry := range result.Array() {
				if entry.IsObject() {
					b.WriteString(intervals.FormatWellnessEntry(entry))
					b.WriteString("\n\n")
					wrote = true
				}
			}
		} else if result.IsObject() {
			// Some responses key entries by date with no date field inside.
			result.ForEach(func(date, entry gjson.Result) bool {
				if entry.IsObject() {
					if !entry.Get("date").Exists() {
						var m map[string]any
						if json.Unmarshal([]byte(entry.Raw), &m) == nil {
							m["date"] = date.String()
							if raw, err := json.Marshal(m); err == nil {
								entry = gjson.ParseBytes(raw)
							}
						}
					}
					b.WriteString(intervals.FormatWellnessEntry(entry))
					b.WriteString("\n\n")
					wrote = true
				}
				return true
			})
		}
		if !wrote {
			return textResult(fmt.Sprintf("No wellness data found for athlete %s in the specified date range.", athleteID)), nil, nil
		}
		return textResult(b.String()), nil, nil
	}
}

// resolveWorkoutType infers the workout type from keywords in the name
// when the caller did not specify one.
func resolveWorkoutType(name, workoutType string) string {
	if workoutType != "" {
		return workoutType
	}
	nameLower := strings.ToLower(name)
	mapping := []struct {
		workout  string
		keywords []string
	}{
		{"Ride", []string{"bike", "cycle", "cycling", "ride"}},
		{"Run", []string{"run", "running", "jog", "jogging"}},
		{"Swim", []string{"swim", "swimming", "pool"}},
		{"Walk", []string{"walk", "walking", "hike", "hiking"}},
		{"Row", []string{"row", "rowing"}},
		{"Weight Training", []string{"weight", "weights", "strength"}},
	}
	for _, m := range mapping {
		for _, kw := range m.keywords {
			if strings.Contains(nameLower, kw) {
				return m.workout
			}
		}
	}
	return "Ride"
}

// normalizeStartDate ensures an ISO8601 local datetime, appending
// midnight when only a date was given.
func normalizeStartDate(startDate string) string {
	if strings.Contains(startDate, "T") {
		return startDate
	}
	return startDate + "T00:00:00"
}

func addOrUpdateEventHandler(client *intervals.Client) mcp.ToolHandlerFor[AddEventInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AddEventInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeWrite); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		startDate := input.StartDate
		if startDate == "" {
			startDate = time.Now().Format("2006-01-02")
		}

		event := map[string]any{
			"start_date_local": normalizeStartDate(startDate),
			"category":         "WORKOUT",
			"name":             input.Name,
			"type":             resolveWorkoutType(input.Name, input.WorkoutType),
		}
		if input.Description != "" {
			event["description"] = input.Description
		}
		if input.MovingTime > 0 {
			event["moving_time"] = input.MovingTime
		}
		if input.Distance > 0 {
			event["distance"] = input.Distance
		}

		var (
			data   []byte
			err    error
			action string
		)
		if input.EventID != "" {
			data, err = client.UpdateEvent(ctx, athleteID, input.EventID, input.APIKey, event)
			action = "updated"
		} else {
			data, err = client.CreateEvent(ctx, athleteID, input.APIKey, event)
			action = "created"
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Error %s event: %v", action, err)), nil, nil
		}

		return textResult(fmt.Sprintf("Successfully %s event: %s", action, prettyJSON(data))), nil, nil
	}
}

func updateEventHandler(client *intervals.Client) mcp.ToolHandlerFor[UpdateEventInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UpdateEventInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeWrite); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}

		existing, err := client.Event(ctx, athleteID, input.EventID, input.APIKey)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching existing event: %v", err)), nil, nil
		}

		var event map[string]any
		if err := json.Unmarshal(existing, &event); err != nil || event == nil {
			return errorResult(fmt.Sprintf("Could not retrieve existing event %s.", input.EventID)), nil, nil
		}

		updated := false
		if input.StartDate != "" {
			event["start_date_local"] = normalizeStartDate(input.StartDate)
			updated = true
		}
		if input.Name != "" {
			event["name"] = input.Name
			updated = true
		}
		if input.Description != "" {
			event["description"] = input.Description
			updated = true
		}
		if input.WorkoutType != "" {
			event["type"] = input.WorkoutType
			updated = true
		} else if input.Name != "" {
			event["type"] = resolveWorkoutType(input.Name, "")
		}
		if input.MovingTime > 0 {
			event["moving_time"] = input.MovingTime
			updated = true
		}
		if input.Distance > 0 {
			event["distance"] = input.Distance
			updated = true
		}
		if !updated {
			return errorResult("Error: No fields provided to update."), nil, nil
		}

		data, err := client.UpdateEvent(ctx, athleteID, input.EventID, input.APIKey, event)
		if err != nil {
			return errorResult(fmt.Sprintf("Error updating event: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf("Successfully updated event: %s", prettyJSON(data))), nil, nil
	}
}

func deleteEventHandler(client *intervals.Client) mcp.ToolHandlerFor[EventInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeWrite); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}
		if input.EventID == "" {
			return errorResult("Error: No event ID provided."), nil, nil
		}

		data, err := client.DeleteEvent(ctx, athleteID, input.EventID, input.APIKey)
		if err != nil {
			return errorResult(fmt.Sprintf("Error deleting event: %v", err)), nil, nil
		}
		return textResult(prettyJSON(data)), nil, nil
	}
}

func deleteEventsByDateRangeHandler(client *intervals.Client) mcp.ToolHandlerFor[DateRangeInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, any, error) {
		if res := checkScope(ctx, scopeWrite); res != nil {
			return res, nil, nil
		}

		athleteID := client.AthleteID(input.AthleteID)
		if athleteID == "" {
			return errorResult("Error: No athlete ID provided and no default ATHLETE_ID configured."), nil, nil
		}
		if err := errors.Join(intervals.ValidateDate(input.StartDate), intervals.ValidateDate(input.EndDate)); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}

		data, err := client.Events(ctx, athleteID, input.APIKey, input.StartDate, input.EndDate)
		if err != nil {
			return errorResult(fmt.Sprintf("Error deleting events: %v", err)), nil, nil
		}

		events := gjson.ParseBytes(data).Array()
		var failed []string
		for _, event := range events {
			id := event.Get("id").String()
			if _, err := client.DeleteEvent(ctx, athleteID, id, input.APIKey); err != nil {
				failed = append(failed, id)
			}
		}
		return textResult(fmt.Sprintf("Deleted %d events. Failed to delete %d events: %v",
			len(events)-len(failed), len(failed), failed)), nil, nil
	}
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
