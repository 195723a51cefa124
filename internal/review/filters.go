package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/scoring"
)

type finishedFilter struct {
	disabled bool
	reason   string
	enabled  bool
}

// NewFinished creates a filter that removes interviews which were not completed.
func NewFinished() Filter {
	return &finishedFilter{}
}

func (f *finishedFilter) Name() string { return "finished" }

func (f *finishedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *finishedFilter) IsEnabled() bool { return !f.disabled }

func (f *finishedFilter) Validate(cfg *Config) error {
	f.enabled = cfg != nil && cfg.FinishedOnly
	return nil
}

func (f *finishedFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if !f.enabled {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(item *candidate.Candidate) bool { return !item.Finished() })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding unfinished interviews",
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *finishedFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"finished_only": strconv.FormatBool(f.enabled)},
	}
}

type minScoreFilter struct {
	disabled bool
	reason   string
	min      int
}

// NewMinScore creates a filter that removes candidates scored below the configured minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg != nil {
		f.min = cfg.MinScore
	}
	if f.min < scoring.MinScore || f.min > scoring.MaxScore {
		return fmt.Errorf("minimum score %d is outside [%d, %d]", f.min, scoring.MinScore, scoring.MaxScore)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.min == scoring.MinScore {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(item *candidate.Candidate) bool {
		return item.Score == nil || *item.Score < f.min
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding candidates below minimum score",
			zap.Int("min_score", f.min),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.Itoa(f.min)},
	}
}

type searchFilter struct {
	disabled bool
	reason   string
	query    string
}

// NewSearch creates a filter that keeps candidates whose name, email or phone
// contains the configured query.
func NewSearch() Filter {
	return &searchFilter{}
}

func (f *searchFilter) Name() string { return "search" }

func (f *searchFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *searchFilter) IsEnabled() bool { return !f.disabled }

func (f *searchFilter) Validate(cfg *Config) error {
	f.query = ""
	if cfg != nil {
		f.query = strings.ToLower(strings.TrimSpace(cfg.Search))
	}
	return nil
}

func (f *searchFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.query == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(item *candidate.Candidate) bool {
		for _, field := range []string{item.Name, item.Email, item.Phone} {
			if strings.Contains(strings.ToLower(field), f.query) {
				return false
			}
		}
		return true
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding candidates not matching search",
			zap.String("query", f.query),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *searchFilter) Status() Status {
	details := map[string]string{}
	if f.query != "" {
		details["query"] = f.query
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
