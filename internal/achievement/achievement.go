// Package achievement unlocks badges from the workout log and 1RM table.
package achievement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/fittrack/internal/storage"
)

// RuleContext is the data every rule sees.
type RuleContext struct {
	Log         []storage.LogEntry
	OneRepMaxes map[string]float64
}

// Rule is one achievement.
type Rule interface {
	Name() string
	Emoji() string
	Description() string
	Check(RuleContext) (bool, error)
}

// RuleError reports a rule that failed or panicked while checking.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("achievement %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// Evaluator runs rules against a RuleContext.
type Evaluator struct {
	rules []Rule
	log   *slog.Logger
}

// NewEvaluator creates an evaluator for rules. With no rules it uses Builtin.
func NewEvaluator(log *slog.Logger, rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = Builtin()
	}
	return &Evaluator{rules: rules, log: log}
}

// Rules returns the evaluated rules in display order.
func (ev *Evaluator) Rules() []Rule {
	return ev.rules
}

// Names returns the rule names in display order.
func (ev *Evaluator) Names() []string {
	names := make([]string, len(ev.rules))
	for i, r := range ev.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate returns the rules newly satisfied by rc. Rules already marked in
// unlocked are not checked again. A failing rule is logged and treated as
// not satisfied; it never stops the remaining rules.
func (ev *Evaluator) Evaluate(ctx context.Context, rc RuleContext, unlocked map[string]bool) []Rule {
	var fresh []Rule
	for _, r := range ev.rules {
		if unlocked[r.Name()] {
			continue
		}
		ok, err := check(r, rc)
		if err != nil {
			ev.log.WarnContext(ctx, "achievement check failed", "achievement", r.Name(), "error", err)
			continue
		}
		if ok {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

func check(r Rule, rc RuleContext) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RuleError{Rule: r.Name(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	ok, err = r.Check(rc)
	if err != nil {
		return false, &RuleError{Rule: r.Name(), Err: err}
	}
	return ok, nil
}
