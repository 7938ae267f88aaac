package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// appState reads the program, date and sensitivity arguments shared by the
// session tools. Missing values are filled in by the tracker.
func appState(req mcp.CallToolRequest) (tracker.AppState, error) {
	st := tracker.AppState{Program: req.GetString("program", "")}
	if d := req.GetString("date", ""); d != "" {
		t, err := parseFlexTime(d)
		if err != nil {
			return st, err
		}
		st.Date = t
	}
	sens, err := autoreg.ParseSensitivity(req.GetString("sensitivity", ""))
	if err != nil {
		return st, err
	}
	st.Sensitivity = sens
	return st, nil
}

// --- Tool definitions ---

var (
	argProgram     = mcp.WithString("program", mcp.Description("Program name. Defaults to the configured default program."))
	argDate        = mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or ISO 8601). Defaults to today."))
	argSensitivity = mcp.WithString("sensitivity", mcp.Description("Autoregulation sensitivity. Defaults to Moderate."), mcp.Enum("Conservative", "Moderate", "Aggressive"))
)

var toolGetToday = mcp.NewTool("get_today",
	mcp.WithDescription("Resolve a date against a program and return the session: day, week, phase, warm-ups and every exercise with its autoregulated prescription and suggested load. Rest days return recovery suggestions instead."),
	argProgram, argDate, argSensitivity,
)

var toolGetPrescription = mcp.NewTool("get_prescription",
	mcp.WithDescription("Preview the autoregulated prescription for one exercise without recording anything."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name, e.g. 'SSB Back Squat'")),
	mcp.WithString("day", mcp.Description("Day name. Defaults to the day scheduled on the date.")),
	argProgram, argDate, argSensitivity,
)

var toolRecordSet = mcp.NewTool("record_set",
	mcp.WithDescription("Record the outcome of one set and return the re-adjusted prescription. Failures lower intensity; a run of successes raises it. Rest interval changes are saved to the program."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithBoolean("success", mcp.Required(), mcp.Description("Whether the set was completed as prescribed")),
	mcp.WithNumber("set", mcp.Description("Set number, starting at 1. Defaults to 1.")),
	mcp.WithString("day", mcp.Description("Day name. Defaults to the day scheduled on the date.")),
	argProgram, argDate, argSensitivity,
)

var toolLogWorkout = mcp.NewTool("log_workout",
	mcp.WithDescription("Append a finished exercise to the workout log and return newly unlocked achievements."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithNumber("successes", mcp.Required(), mcp.Description("Number of successful sets")),
	mcp.WithNumber("total", mcp.Required(), mcp.Description("Number of sets attempted")),
	mcp.WithString("day", mcp.Description("Day name")),
	mcp.WithString("details", mcp.Description("What was done. Defaults to the prescription summary.")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
	argProgram, argDate,
)

var toolLogRecovery = mcp.NewTool("log_recovery",
	mcp.WithDescription("Log body weight and calorie intake for a day. Drops against the recent average make autoregulation more conservative."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Body weight")),
	mcp.WithNumber("calories", mcp.Required(), mcp.Description("Calories eaten")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
	argDate,
)

var toolSetOneRepMax = mcp.NewTool("set_one_rep_max",
	mcp.WithDescription("Set the one-rep max used to suggest loads for an exercise."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("One-rep max in the configured unit")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List the training programs in the library with their duration and days."),
)

var toolGetAchievements = mcp.NewTool("get_achievements",
	mcp.WithDescription("List all achievements and whether each is unlocked."),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Per-exercise progress: recorded sets, success rate, current one-rep max and its history from the log."),
)

// --- Tool handlers ---

func (h *handlers) getToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := appState(req)
	if err != nil {
		return mcp.NewToolResultError("invalid argument: " + err.Error()), nil
	}
	sess, err := h.svc.Today(ctx, st)
	if err != nil {
		return h.failure("get_today", err), nil
	}
	return jsonResult(sess)
}

func (h *handlers) getPrescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	st, err := appState(req)
	if err != nil {
		return mcp.NewToolResultError("invalid argument: " + err.Error()), nil
	}
	item, err := h.svc.Preview(ctx, st, req.GetString("day", ""), exercise)
	if err != nil {
		return h.failure("get_prescription", err), nil
	}
	return jsonResult(item)
}

func (h *handlers) recordSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	success, err := req.RequireBool("success")
	if err != nil {
		return mcp.NewToolResultError("success parameter is required"), nil
	}
	st, err := appState(req)
	if err != nil {
		return mcp.NewToolResultError("invalid argument: " + err.Error()), nil
	}
	item, err := h.svc.RecordSet(ctx, st, req.GetString("day", ""), exercise, success, req.GetInt("set", 1))
	if err != nil {
		return h.failure("record_set", err), nil
	}
	return jsonResult(item)
}

func (h *handlers) logWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	st, err := appState(req)
	if err != nil {
		return mcp.NewToolResultError("invalid argument: " + err.Error()), nil
	}
	badges, err := h.svc.LogWorkout(ctx, st, tracker.WorkoutEntry{
		Day:       req.GetString("day", ""),
		Exercise:  exercise,
		Details:   req.GetString("details", ""),
		Successes: req.GetInt("successes", 0),
		Total:     req.GetInt("total", 0),
		Notes:     req.GetString("notes", ""),
	})
	if err != nil {
		return h.failure("log_workout", err), nil
	}
	return jsonResult(map[string]any{"logged": exercise, "unlocked": badges})
}

func (h *handlers) logRecovery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	calories, err := req.RequireFloat("calories")
	if err != nil {
		return mcp.NewToolResultError("calories parameter is required"), nil
	}
	st, err := appState(req)
	if err != nil {
		return mcp.NewToolResultError("invalid argument: " + err.Error()), nil
	}
	badges, err := h.svc.LogRecovery(ctx, st, weight, calories, req.GetString("notes", ""))
	if err != nil {
		return h.failure("log_recovery", err), nil
	}
	return jsonResult(map[string]any{"unlocked": badges})
}

func (h *handlers) setOneRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	if err := h.svc.SetOneRepMax(exercise, weight); err != nil {
		return h.failure("set_one_rep_max", err), nil
	}
	maxes, err := h.svc.OneRepMaxes()
	if err != nil {
		return h.failure("set_one_rep_max", err), nil
	}
	return jsonResult(maxes)
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.svc.Programs()
	if err != nil {
		return h.failure("list_programs", err), nil
	}
	type summary struct {
		Name          string   `json:"name"`
		DurationWeeks int      `json:"duration_weeks"`
		Description   string   `json:"description"`
		Days          []string `json:"days"`
	}
	out := make([]summary, len(programs))
	for i, p := range programs {
		out[i] = summary{Name: p.Name, DurationWeeks: p.DurationWeeks, Description: p.Description, Days: p.DayNames()}
	}
	return jsonResult(out)
}

func (h *handlers) getAchievements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	badges, err := h.svc.Achievements()
	if err != nil {
		return h.failure("get_achievements", err), nil
	}
	return jsonResult(badges)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.svc.Stats()
	if err != nil {
		return h.failure("get_stats", err), nil
	}
	return jsonResult(stats)
}

// failure turns err into a tool error. Caller mistakes are reported as is;
// anything else is logged as well.
func (h *handlers) failure(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput),
		errors.Is(err, tracker.ErrUnknownProgram),
		errors.Is(err, tracker.ErrNotActive),
		errors.Is(err, autoreg.ErrNoPrescription):
	default:
		h.log.Error("mcp "+tool, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
