package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/calendar"
	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// maxImportBytes bounds uploaded program files.
const maxImportBytes = 1 << 20

// stateFields carries the AppState in request bodies.
type stateFields struct {
	Program     string `json:"program"`
	Date        string `json:"date"` // YYYY-MM-DD
	Sensitivity string `json:"sensitivity"`
}

func (f stateFields) state() (tracker.AppState, error) {
	var st tracker.AppState
	st.Program = f.Program
	if f.Date != "" {
		d, err := time.Parse(time.DateOnly, f.Date)
		if err != nil {
			return st, fmt.Errorf("%w: date must be YYYY-MM-DD", tracker.ErrInvalidInput)
		}
		st.Date = d
	}
	sens, err := autoreg.ParseSensitivity(f.Sensitivity)
	if err != nil {
		return st, fmt.Errorf("%w: %w", tracker.ErrInvalidInput, err)
	}
	st.Sensitivity = sens
	return st, nil
}

func queryState(r *http.Request) (tracker.AppState, error) {
	q := r.URL.Query()
	return stateFields{Program: q.Get("program"), Date: q.Get("date"), Sensitivity: q.Get("sensitivity")}.state()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.svc.Programs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type summary struct {
		Name          string `json:"name"`
		DurationWeeks int    `json:"duration_weeks"`
		Description   string `json:"description"`
		Days          int    `json:"days"`
	}
	out := make([]summary, len(programs))
	for i, p := range programs {
		out[i] = summary{Name: p.Name, DurationWeeks: p.DurationWeeks, Description: p.Description, Days: len(p.Days)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Program(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	p, err := program.ParseJSON(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	periodize, _ := strconv.ParseBool(r.URL.Query().Get("periodize"))
	saved, err := s.svc.CreateProgram(r.Context(), p, periodize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleImportProgram(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == tracker.FormatCSV && q.Get("name") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required for csv"})
		return
	}
	saved, err := s.svc.ImportProgram(r.Context(), q.Get("name"), format, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	st, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Today(r.Context(), st)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	st, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st = s.svc.Normalize(st)
	p, err := s.svc.Program(st.Program)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Resolver().Week(p, calendar.MondayOf(st.Date)))
}

func (s *Server) handlePrescription(w http.ResponseWriter, r *http.Request) {
	st, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	item, err := s.svc.Preview(r.Context(), st, r.URL.Query().Get("day"), exercise)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleWarmUps(w http.ResponseWriter, r *http.Request) {
	st, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	warm, quote, err := s.svc.WarmUps(st)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warm_ups": warm, "quote": quote})
}

type setRequest struct {
	stateFields
	Day      string `json:"day"`
	Exercise string `json:"exercise"`
	Success  bool   `json:"success"`
	Set      int    `json:"set"`
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise is required"})
		return
	}
	st, err := req.state()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.svc.RecordSet(r.Context(), st, req.Day, req.Exercise, req.Success, req.Set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Log(r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []storage.LogEntry{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type workoutRequest struct {
	stateFields
	tracker.WorkoutEntry
}

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := req.state()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	badges, err := s.svc.LogWorkout(r.Context(), st, req.WorkoutEntry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"unlocked": nonNil(badges)})
}

type recoveryRequest struct {
	stateFields
	Weight   float64 `json:"weight"`
	Calories float64 `json:"calories"`
	Notes    string  `json:"notes"`
}

func (s *Server) handleLogRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := req.state()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	badges, err := s.svc.LogRecovery(r.Context(), st, req.Weight, req.Calories, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"unlocked": nonNil(badges)})
}

func (s *Server) handleOneRepMaxes(w http.ResponseWriter, r *http.Request) {
	maxes, err := s.svc.OneRepMaxes()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maxes)
}

func (s *Server) handleSetOneRepMax(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercise string  `json:"exercise"`
		Weight   float64 `json:"weight"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.SetOneRepMax(req.Exercise, req.Weight); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleOneRepMaxes(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.History(chi.URLParam(r, "exercise"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []storage.PerformanceEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	badges, err := s.svc.Achievements()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeJSON(w, http.StatusOK, []storage.ImportRun{})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := s.ledger.Runs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []storage.ImportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == "" {
		user = "local"
	}
	writeJSON(w, http.StatusOK, map[string]string{"login": user})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *program.ValidationError
		perr *program.ParseError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr), errors.As(err, &perr), errors.Is(err, tracker.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrDuplicateName), errors.Is(err, tracker.ErrNotActive):
		status = http.StatusConflict
	case errors.Is(err, tracker.ErrUnknownProgram), errors.Is(err, storage.ErrProgramNotFound), errors.Is(err, autoreg.ErrNoPrescription):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func nonNil(badges []tracker.Badge) []tracker.Badge {
	if badges == nil {
		return []tracker.Badge{}
	}
	return badges
}

func withUser(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, userKey, login)
}

func userFromContext(ctx context.Context) string {
	login, _ := ctx.Value(userKey).(string)
	return login
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
