// Package review narrows stored candidates down for the interviewer dashboard.
package review

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Filter represents a single review step applied to candidates.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, c *Candidates) (*Candidates, Step, error)
}

// Deps aggregates dependencies shared across all review steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a review step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains the settings consumed by the filters.
type Config struct {
	FinishedOnly bool
	MinScore     int
	Search       string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns the dashboard steps in the order they run.
func Default() []Filter {
	return []Filter{NewFinished(), NewMinScore(), NewSearch()}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns what is left,
// sorted by score.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, c *Candidates) (*Candidates, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		c = next
	}

	c.SortByScore()
	return c, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
