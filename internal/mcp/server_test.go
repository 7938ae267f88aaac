package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/claude/fittrack/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
)

func newHandlers(t *testing.T) *handlers {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	log := testhelpers.NewLogger(testhelpers.NewWriter(t))
	now := time.Date(2025, 9, 1, 18, 15, 0, 0, time.UTC)
	svc := tracker.New(db, tracker.Options{Now: func() time.Time { return now }, Seed: 1}, log)
	return &handlers{svc: svc, log: log}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestParseFlexTime verifies both accepted date formats.
func TestParseFlexTime(t *testing.T) {
	got, err := parseFlexTime("2025-09-01")
	if err != nil || got.Day() != 1 {
		t.Errorf("parseFlexTime(date) = %v, %v", got, err)
	}
	got, err = parseFlexTime("2025-09-01T10:30:00Z")
	if err != nil || got.Hour() != 10 {
		t.Errorf("parseFlexTime(RFC3339) = %v, %v", got, err)
	}
	if _, err := parseFlexTime("yesterday"); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestAppState verifies argument parsing for the session tools.
func TestAppState(t *testing.T) {
	st, err := appState(call(map[string]any{"date": "2025-09-08", "sensitivity": "aggressive"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Sensitivity != autoreg.Aggressive {
		t.Errorf("sensitivity = %q, want %q", st.Sensitivity, autoreg.Aggressive)
	}
	if st.Date.Day() != 8 {
		t.Errorf("date = %v, want 2025-09-08", st.Date)
	}
	if _, err := appState(call(map[string]any{"sensitivity": "wild"})); err == nil {
		t.Error("expected error for unknown sensitivity")
	}
}

// TestGetToday verifies the session for the program's first day.
func TestGetToday(t *testing.T) {
	h := newHandlers(t)
	res, err := h.getToday(context.Background(), call(map[string]any{"date": "2025-09-01"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}
	var sess tracker.Session
	if err := json.Unmarshal([]byte(text(t, res)), &sess); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if sess.Resolution.Week != 1 || len(sess.Items) == 0 {
		t.Errorf("session = %+v, want week 1 with items", sess.Resolution)
	}
}

// TestRecordSetErrors verifies that caller mistakes become tool errors
// rather than protocol errors.
func TestRecordSetErrors(t *testing.T) {
	h := newHandlers(t)
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing exercise", map[string]any{"success": true}},
		{"missing success", map[string]any{"exercise": "SSB Back Squat"}},
		{"rest day", map[string]any{"exercise": "SSB Back Squat", "success": true, "date": "2025-09-03"}},
		{"unknown program", map[string]any{"exercise": "SSB Back Squat", "success": true, "program": "Nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.recordSet(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("unexpected protocol error: %v", err)
			}
			if !res.IsError {
				t.Errorf("IsError = false, want true: %s", text(t, res))
			}
		})
	}
}

// TestRecordSetThenHistory verifies that a recorded set shows up in stats.
func TestRecordSetThenHistory(t *testing.T) {
	h := newHandlers(t)
	res, _ := h.recordSet(context.Background(), call(map[string]any{
		"exercise": "SSB Back Squat", "success": true, "set": float64(1), "date": "2025-09-01",
	}))
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}

	res, _ = h.getStats(context.Background(), call(nil))
	var stats []tracker.ExerciseStats
	if err := json.Unmarshal([]byte(text(t, res)), &stats); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(stats) != 1 || stats[0].Sets != 1 || stats[0].Successes != 1 {
		t.Errorf("stats = %+v, want one successful set", stats)
	}
}

// TestSetOneRepMaxAndResources verifies the 1RM tool and both resources.
func TestSetOneRepMaxAndResources(t *testing.T) {
	h := newHandlers(t)
	res, _ := h.setOneRepMax(context.Background(), call(map[string]any{"exercise": "Deadlifts", "weight": 315.0}))
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = "fittrack://programs"
	contents, err := h.programs(context.Background(), req)
	if err != nil {
		t.Fatalf("programs resource: %v", err)
	}
	var programs []json.RawMessage
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &programs); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(programs) != 2 {
		t.Errorf("len(programs) = %d, want 2", len(programs))
	}

	req.Params.URI = "fittrack://achievements"
	contents, err = h.achievements(context.Background(), req)
	if err != nil {
		t.Fatalf("achievements resource: %v", err)
	}
	var badges []tracker.Badge
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &badges); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(badges) != 8 {
		t.Errorf("len(badges) = %d, want 8", len(badges))
	}
}
