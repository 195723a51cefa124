package questions

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Level string

const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

// Question is a single interview question with its answering time limit.
type Question struct {
	Level            Level  `mapstructure:"level" json:"level" validate:"required,oneof=Easy Medium Hard"`
	TimeLimitSeconds int    `mapstructure:"time-limit" json:"time_limit" validate:"gt=0"`
	Text             string `mapstructure:"text" json:"text" validate:"required"`
}

// Bank is an ordered, read-only sequence of questions.
type Bank struct {
	items []Question
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New validates the questions and returns a bank holding its own copy of them.
func New(items []Question) (Bank, error) {
	if len(items) == 0 {
		return Bank{}, errors.New("question bank must not be empty")
	}

	copied := make([]Question, len(items))
	copy(copied, items)

	for i, q := range copied {
		if err := validate.Struct(q); err != nil {
			return Bank{}, fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	return Bank{items: copied}, nil
}

// Default returns the built-in bank: two easy, two medium and two hard questions.
func Default() Bank {
	return Bank{items: []Question{
		{Level: LevelEasy, TimeLimitSeconds: 20, Text: "Explain the difference between let, const, and var in JS."},
		{Level: LevelEasy, TimeLimitSeconds: 20, Text: "What is JSX in React?"},
		{Level: LevelMedium, TimeLimitSeconds: 60, Text: "Explain the lifecycle methods of a React component."},
		{Level: LevelMedium, TimeLimitSeconds: 60, Text: "How does Node.js handle asynchronous operations?"},
		{Level: LevelHard, TimeLimitSeconds: 120, Text: "Design a REST API for a todo app using Node.js and Express."},
		{Level: LevelHard, TimeLimitSeconds: 120, Text: "Explain state management strategies in React for large applications."},
	}}
}

func (b Bank) Len() int {
	return len(b.items)
}

// At returns the question at index i. The second value is false when i is out of range.
func (b Bank) At(i int) (Question, bool) {
	if i < 0 || i >= len(b.items) {
		return Question{}, false
	}
	return b.items[i], true
}

// All returns a copy of the questions in order.
func (b Bank) All() []Question {
	out := make([]Question, len(b.items))
	copy(out, b.items)
	return out
}
