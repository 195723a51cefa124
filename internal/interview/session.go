package interview

import (
	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/extractor"
)

// Phase is the position of a session in the interview.
type Phase int

const (
	PhaseCollectingName Phase = iota
	PhaseCollectingEmail
	PhaseCollectingPhone
	PhaseAskingQuestion
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseCollectingName:
		return "collecting_name"
	case PhaseCollectingEmail:
		return "collecting_email"
	case PhaseCollectingPhone:
		return "collecting_phone"
	case PhaseAskingQuestion:
		return "asking_question"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Collecting reports whether identity fields are still being gathered.
func (p Phase) Collecting() bool {
	return p < PhaseAskingQuestion
}

type Sender string

const (
	SenderSystem    Sender = "System"
	SenderCandidate Sender = "Candidate"
)

// Message is a transcript entry. Entries are only ever appended.
type Message struct {
	Sender Sender
	Text   string
}

// State is a snapshot of the session position.
//
// QuestionIndex is the 0-based index of the question being asked and always
// equals the number of recorded answers. RemainingSeconds is non-zero only
// while a question is being asked. Turn grows by one for every new request
// sent to the candidate (a field prompt or a question).
type State struct {
	Phase            Phase
	QuestionIndex    int
	RemainingSeconds int
	Turn             int
}

type session struct {
	id       string
	started  bool
	phase    Phase
	index    int
	turn     int
	prompted bool

	fields    extractor.Fields
	messages  []Message
	candidate *candidate.Candidate
}
