// Package tracker is the application service behind the HTTP and MCP
// adapters. It holds no session state: every call carries an AppState.
package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/claude/fittrack/internal/achievement"
	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/calendar"
	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
)

var (
	// ErrUnknownProgram is returned when the selected program is not in the
	// library.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrNotActive is returned for operations that need a scheduled session
	// on a date outside the program.
	ErrNotActive = errors.New("program is not active on this date")
	// ErrInvalidInput wraps caller mistakes such as a missing exercise name.
	ErrInvalidInput = errors.New("invalid input")
)

// AppState is the caller's current selection.
type AppState struct {
	Program     string              `json:"program"`
	Date        time.Time           `json:"date"`
	Sensitivity autoreg.Sensitivity `json:"sensitivity"`
}

// Store is the persistence the tracker needs. *storage.DB satisfies it.
type Store interface {
	autoreg.History
	Programs() ([]*program.Program, error)
	Program(name string) (*program.Program, error)
	SaveProgram(p *program.Program) error
	UpdateRest(name, day string, phase program.Phase, exercise string, rest int) error
	PerformanceExercises() ([]string, error)
	OneRepMaxes() (map[string]float64, error)
	SetOneRepMax(exercise string, weight float64) error
	Unlocked() (map[string]bool, error)
	Unlock(known, names []string) error
	AppendLog(entries ...storage.LogEntry) error
	Log(filter string) ([]storage.LogEntry, error)
}

// Options configures a Service.
type Options struct {
	Units          string              // load unit shown in suggestions, "lbs" or "kg"
	DefaultProgram string              // used when AppState.Program is empty
	Sensitivity    autoreg.Sensitivity // used when AppState.Sensitivity is empty
	Resolver       *calendar.Resolver  // defaults to calendar.NewResolver(calendar.DefaultStart)
	Now            func() time.Time
	Seed           int64 // warm-up and quote sampling
}

// Service implements the tracker operations.
type Service struct {
	store        Store
	resolver     *calendar.Resolver
	engine       *autoreg.Engine
	achievements *achievement.Evaluator
	log          *slog.Logger
	units        string
	defaultProg  string
	defaultSens  autoreg.Sensitivity
	now          func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a Service.
func New(store Store, opts Options, log *slog.Logger) *Service {
	if opts.Resolver == nil {
		opts.Resolver = calendar.NewResolver(calendar.DefaultStart)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Units == "" {
		opts.Units = "lbs"
	}
	if opts.DefaultProgram == "" {
		opts.DefaultProgram = program.StrengthRunning
	}
	if opts.Sensitivity == "" {
		opts.Sensitivity = autoreg.Moderate
	}
	if opts.Seed == 0 {
		opts.Seed = opts.Now().UnixNano()
	}
	return &Service{
		store:        store,
		resolver:     opts.Resolver,
		engine:       autoreg.New(store, log).WithClock(opts.Now),
		achievements: achievement.NewEvaluator(log),
		log:          log,
		units:        opts.Units,
		defaultProg:  opts.DefaultProgram,
		defaultSens:  opts.Sensitivity,
		now:          opts.Now,
		rng:          rand.New(rand.NewSource(opts.Seed)),
	}
}

// Resolver returns the calendar resolver in use.
func (s *Service) Resolver() *calendar.Resolver {
	return s.resolver
}

// Normalize fills defaults into st: the default program, today's date and
// the default sensitivity.
func (s *Service) Normalize(st AppState) AppState {
	if st.Program == "" {
		st.Program = s.defaultProg
	}
	if st.Date.IsZero() {
		st.Date = s.now()
	}
	if st.Sensitivity == "" {
		st.Sensitivity = s.defaultSens
	}
	return st
}

// Programs lists the program library.
func (s *Service) Programs() ([]*program.Program, error) {
	programs, err := s.store.Programs()
	if err != nil {
		return nil, fmt.Errorf("loading programs: %w", err)
	}
	return programs, nil
}

// Program returns the named program.
func (s *Service) Program(name string) (*program.Program, error) {
	p, err := s.store.Program(name)
	if errors.Is(err, storage.ErrProgramNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading program %q: %w", name, err)
	}
	return p, nil
}

// CreateProgram validates and saves p. With periodize set, Intensity and
// Peaking are derived from the Base prescriptions first.
func (s *Service) CreateProgram(ctx context.Context, p *program.Program, periodize bool) (*program.Program, error) {
	if periodize {
		p = program.Periodize(p)
	}
	if err := program.Validate(p); err != nil {
		return nil, err
	}
	if err := s.store.SaveProgram(p); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "program saved", "program", p.Name, "weeks", p.DurationWeeks, "days", len(p.Days))
	return p, nil
}

// Import formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ImportProgram parses data as a JSON/JSONC or CSV program and saves it. For
// CSV the program is named name; for JSON, name only fills in a missing
// name key.
func (s *Service) ImportProgram(ctx context.Context, name, format string, data []byte) (*program.Program, error) {
	var (
		p   *program.Program
		err error
	)
	switch strings.ToLower(format) {
	case FormatCSV:
		p, err = program.ParseCSV(name, bytes.NewReader(data))
	case "", FormatJSON, "jsonc":
		p, err = program.ParseJSON(data)
		if err == nil && p.Name == "" {
			p.Name = name
		}
	default:
		return nil, fmt.Errorf("%w: unsupported import format %q", ErrInvalidInput, format)
	}
	var verr *program.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}
	return s.CreateProgram(ctx, p, false)
}

// SetOneRepMax stores a new 1RM for exercise.
func (s *Service) SetOneRepMax(exercise string, weight float64) error {
	if exercise == "" {
		return fmt.Errorf("%w: exercise is required", ErrInvalidInput)
	}
	return s.store.SetOneRepMax(exercise, weight)
}

// OneRepMaxes returns the 1RM table.
func (s *Service) OneRepMaxes() (map[string]float64, error) {
	return s.store.OneRepMaxes()
}

// History returns the recorded set outcomes for exercise.
func (s *Service) History(exercise string) ([]storage.PerformanceEntry, error) {
	return s.store.Performance(exercise)
}

// Log returns the workout log filtered by exercise or note text.
func (s *Service) Log(filter string) ([]storage.LogEntry, error) {
	return s.store.Log(filter)
}

func (s *Service) program(st AppState) (*program.Program, error) {
	return s.Program(st.Program)
}
