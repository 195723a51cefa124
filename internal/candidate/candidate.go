package candidate

// Candidate is the recorded result of one interview session.
type Candidate struct {
	ID      string   `mapstructure:"id" json:"id" yaml:"id"`
	Name    string   `mapstructure:"name" json:"name" yaml:"name"`
	Email   string   `mapstructure:"email" json:"email" yaml:"email"`
	Phone   string   `mapstructure:"phone" json:"phone" yaml:"phone"`
	Answers []string `mapstructure:"answers" json:"answers" yaml:"answers"`
	Score   *int     `mapstructure:"score,omitempty" json:"score,omitempty" yaml:"score,omitempty"`
	Summary string   `mapstructure:"summary,omitempty" json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Finished reports whether the candidate has been scored.
func (c *Candidate) Finished() bool {
	return c.Score != nil
}

// Clone returns a deep copy.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}

	out := *c
	if c.Answers != nil {
		out.Answers = make([]string, len(c.Answers))
		copy(out.Answers, c.Answers)
	}
	if c.Score != nil {
		score := *c.Score
		out.Score = &score
	}
	return &out
}
