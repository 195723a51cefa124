// Package scoring turns a completed interview into a score and a summary.
//
// The only scorer shipped is a placeholder: it does not look at answer
// content. Any replacement must keep the contract of Scorer.
package scoring

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spigell/interviewer/internal/candidate"
)

const (
	MinScore = 0
	MaxScore = 100

	DefaultSummary = "Candidate shows good knowledge in React/Node.js"
)

type Result struct {
	Score   int
	Summary string
}

// Scorer grades a candidate whose answers are complete. Score must be within
// [MinScore, MaxScore] and Summary must not be empty.
type Scorer interface {
	Score(c *candidate.Candidate) Result
}

// Placeholder assigns a random score.
type Placeholder struct {
	summary string
	intn    func(n int) int
}

type Option func(*Placeholder)

// WithSource replaces the random source. intn must return a value in [0, n).
func WithSource(intn func(n int) int) Option {
	return func(p *Placeholder) {
		p.intn = intn
	}
}

func NewPlaceholder(summary string, opts ...Option) *Placeholder {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = DefaultSummary
	}

	p := &Placeholder{
		summary: summary,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Placeholder) Score(c *candidate.Candidate) Result {
	answered, total := 0, 0
	if c != nil {
		total = len(c.Answers)
		for _, a := range c.Answers {
			if strings.TrimSpace(a) != "" {
				answered++
			}
		}
	}

	return Result{
		Score:   clamp(p.intn(MaxScore + 1)),
		Summary: fmt.Sprintf("Answered %d of %d questions. %s", answered, total, p.summary),
	}
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
