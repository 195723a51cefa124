// Package interview runs a single timed interview session.
//
// An Engine owns one session. Candidate input (SubmitText, SubmitAnswer,
// UploadDocument) and clock ticks (Tick, RunClock) are funneled through one
// mutex, so transitions never overlap. For every question at most one of a
// submission or a timeout is recorded: whichever reaches the engine first
// disarms the timer and advances the session, which turns the other into a
// no-op.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/document"
	"github.com/spigell/interviewer/internal/extractor"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/scoring"
	"github.com/spigell/interviewer/internal/timer"
	"github.com/spigell/interviewer/internal/utils"
	"github.com/spigell/interviewer/internal/validation"
)

const (
	PromptName  = "Please enter your full name:"
	PromptEmail = "Please enter a valid Gmail address:"
	PromptPhone = "Please enter your 10-digit phone number:"

	InvalidEmailText      = "Enter valid Gmail!"
	InvalidPhoneText      = "Enter valid 10-digit phone!"
	UploadParsedText      = "Resume uploaded & parsed successfully!"
	UploadUnreadableText  = "Could not read the resume, please enter your details manually."
	UploadUnsupportedText = "Only PDF files are supported currently!"
	FinishedText          = "Interview finished!"

	defaultTickInterval = time.Second
	answerPreviewLength = 80
	noExpiry            = -1
)

// Deps are the collaborators of an Engine.
type Deps struct {
	Bank      questions.Bank
	Documents document.Extractor
	Scorer    scoring.Scorer
	Store     *candidate.Store
	Logger    *zap.Logger
}

type Option func(*Engine)

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		if id = strings.TrimSpace(id); id != "" {
			e.s.id = id
		}
	}
}

// WithObserver registers fn to receive every appended message. fn is called
// after the engine lock is released, so it may query the engine.
func WithObserver(fn func(Message)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithTickInterval changes how often RunClock ticks.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

type Engine struct {
	mu sync.Mutex
	s  session

	bank   questions.Bank
	docs   document.Extractor
	scorer scoring.Scorer
	store  *candidate.Store
	log    *zap.Logger

	timer    *timer.Timer
	expired  int
	interval time.Duration

	observer func(Message)
	pending  []Message
}

func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Bank.Len() == 0 {
		return nil, errors.New("question bank is required")
	}
	if deps.Store == nil {
		return nil, errors.New("candidate store is required")
	}

	e := &Engine{
		s:        session{id: uuid.NewString()},
		bank:     deps.Bank,
		docs:     deps.Documents,
		scorer:   deps.Scorer,
		store:    deps.Store,
		timer:    timer.New(),
		expired:  noExpiry,
		interval: defaultTickInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.log = logger.WithSession(deps.Logger, e.s.id)

	if e.docs == nil {
		e.docs = document.NewPDF(e.log)
	}
	if e.scorer == nil {
		e.scorer = scoring.NewPlaceholder("")
	}

	return e, nil
}

func (e *Engine) ID() string {
	return e.s.id
}

// Start begins the conversation. It asks for the first identity field that
// is still unknown or, when all of them are known, asks the first question.
// Calling Start again has no effect.
func (e *Engine) Start(ctx context.Context) error {
	return e.do(func() error {
		if e.s.started {
			return nil
		}
		e.s.started = true
		e.log.Info("interview started", zap.Int("questions", e.bank.Len()))
		return e.advance(ctx)
	})
}

// UploadDocument extracts identity fields from a resume. Fields that are
// still empty are filled with extracted values that validate. Unsupported
// documents are declined with document.ErrUnsupportedDocument and leave the
// fields and phase as they were. Unreadable documents are treated as empty.
// Context errors are returned as is and leave the transcript unchanged.
func (e *Engine) UploadDocument(ctx context.Context, data []byte) error {
	return e.do(func() error {
		if !e.s.phase.Collecting() {
			return ErrUploadClosed
		}

		text, err := e.docs.ExtractText(ctx, data)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		case errors.Is(err, document.ErrUnsupportedDocument):
			e.log.Warn("document declined", zap.Error(err))
			e.system(UploadUnsupportedText)
			return err
		case err != nil:
			e.log.Warn("document text extraction failed, falling back to manual entry", zap.Error(err))
			e.system(UploadUnreadableText)
			text = ""
		default:
			e.system(UploadParsedText)
		}

		found := extractor.Extract(text)
		e.log.Info("document parsed",
			zap.Bool("name_found", found.Name != ""),
			zap.Bool("email_found", found.Email != ""),
			zap.Bool("phone_found", found.Phone != ""),
		)

		if e.s.fields.Name == "" {
			e.s.fields.Name = found.Name
		}
		if e.s.fields.Email == "" && validation.IsValidEmail(found.Email) {
			e.s.fields.Email = found.Email
		}
		if e.s.fields.Phone == "" && validation.IsValidPhone(found.Phone) {
			e.s.fields.Phone = found.Phone
		}

		return e.advance(ctx)
	})
}

// SubmitText handles a line typed by the candidate. While collecting it is
// the value of the requested field, while asking it is the answer to the
// current question. Blank input and input after the interview finished are
// ignored. A rejected field value returns a *ValidationError.
func (e *Engine) SubmitText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	return e.do(func() error {
		if !e.s.started {
			return ErrNotStarted
		}

		switch e.s.phase {
		case PhaseFinished:
			e.log.Debug("ignoring input after the interview finished")
			return nil
		case PhaseAskingQuestion:
			e.fromCandidate(text)
			return e.answer(ctx, e.s.index, text, false)
		default:
			e.fromCandidate(text)
			return e.collect(ctx, text)
		}
	})
}

// SubmitAnswer records text as the answer to question index. The call is a
// silent no-op unless that question is the one currently asked, which makes
// late or repeated submissions harmless.
func (e *Engine) SubmitAnswer(ctx context.Context, index int, text string) error {
	text = strings.TrimSpace(text)

	return e.do(func() error {
		if e.s.phase != PhaseAskingQuestion || index != e.s.index {
			e.log.Debug("ignoring answer for a question that is not active",
				zap.Int(logger.FieldQuestion, index),
				zap.Stringer(logger.FieldPhase, e.s.phase),
			)
			return nil
		}

		if text != "" {
			e.fromCandidate(text)
		}
		return e.answer(ctx, index, text, false)
	})
}

// Tick accounts for one elapsed second. When the question timer runs out an
// empty answer is recorded and the session advances.
func (e *Engine) Tick(ctx context.Context) error {
	return e.do(func() error {
		if e.s.phase != PhaseAskingQuestion {
			return nil
		}

		e.timer.Tick()

		index := e.expired
		e.expired = noExpiry
		if index == noExpiry || index != e.s.index {
			return nil
		}

		e.log.Info("question timed out", zap.Int(logger.FieldQuestion, index))
		e.system(fmt.Sprintf("Time is up for question %d.", index+1))
		return e.answer(ctx, index, "", true)
	})
}

// RunClock ticks the engine once per interval until ctx is done or the
// interview finishes. Persistence errors raised by timeouts are logged.
func (e *Engine) RunClock(ctx context.Context) error {
	for {
		if e.State().Phase == PhaseFinished {
			return nil
		}

		if err := utils.WaitFor(ctx, e.interval); err != nil {
			return err
		}

		if err := e.Tick(ctx); err != nil {
			e.log.Error("clock tick", zap.Error(err))
		}
	}
}

// State returns a snapshot of the session position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Phase:            e.s.phase,
		QuestionIndex:    e.s.index,
		RemainingSeconds: e.timer.Remaining(),
		Turn:             e.s.turn,
	}
}

func (e *Engine) RemainingSeconds() int {
	return e.State().RemainingSeconds
}

// Messages returns a copy of the transcript.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Message, len(e.s.messages))
	copy(out, e.s.messages)
	return out
}

// Identity returns the identity fields collected so far.
func (e *Engine) Identity() extractor.Fields {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.s.fields
}

// Candidate returns a copy of the session record, nil before the first answer.
func (e *Engine) Candidate() *candidate.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.s.candidate.Clone()
}

// Candidates lists every stored candidate for review.
func (e *Engine) Candidates(ctx context.Context) ([]*candidate.Candidate, error) {
	return e.store.ListAll(ctx)
}

// Question returns the question at index i of the bank.
func (e *Engine) Question(i int) (questions.Question, bool) {
	return e.bank.At(i)
}

// do runs fn under the engine lock and then hands the messages appended by fn
// to the observer.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	err := fn()
	pending := e.pending
	e.pending = nil
	observer := e.observer
	e.mu.Unlock()

	if observer != nil {
		for _, m := range pending {
			observer(m)
		}
	}
	return err
}

// advance skips collection phases whose field is already known and sends the
// request for the first one that is not. Leaving the phone phase asks the
// first question.
func (e *Engine) advance(ctx context.Context) error {
	if !e.s.started {
		return nil
	}

	for e.s.phase.Collecting() {
		var known bool
		var prompt string

		switch e.s.phase {
		case PhaseCollectingName:
			known, prompt = e.s.fields.Name != "", PromptName
		case PhaseCollectingEmail:
			known, prompt = validation.IsValidEmail(e.s.fields.Email), PromptEmail
		case PhaseCollectingPhone:
			known, prompt = validation.IsValidPhone(e.s.fields.Phone), PromptPhone
		}

		if !known {
			e.request(prompt)
			return nil
		}

		e.setPhase(e.s.phase + 1)
	}

	if e.s.phase == PhaseAskingQuestion {
		e.ask(0)
	}
	return nil
}

func (e *Engine) collect(ctx context.Context, text string) error {
	switch e.s.phase {
	case PhaseCollectingName:
		e.s.fields.Name = text
	case PhaseCollectingEmail:
		if !validation.IsValidEmail(text) {
			return e.reject("email", text, InvalidEmailText, PromptEmail)
		}
		e.s.fields.Email = text
	case PhaseCollectingPhone:
		if !validation.IsValidPhone(text) {
			return e.reject("phone", text, InvalidPhoneText, PromptPhone)
		}
		e.s.fields.Phone = text
	}

	e.log.Debug("field collected", zap.Stringer(logger.FieldPhase, e.s.phase))
	return e.advance(ctx)
}

func (e *Engine) reject(field, value, reason, prompt string) error {
	e.log.Info("field rejected", zap.String("field", field))
	e.system(reason)
	e.system(prompt)
	return &ValidationError{Field: field, Value: value}
}

// request sends a field prompt once per phase.
func (e *Engine) request(prompt string) {
	if e.s.prompted {
		return
	}
	e.s.prompted = true
	e.s.turn++
	e.system(prompt)
}

func (e *Engine) ask(index int) {
	q, _ := e.bank.At(index)

	e.s.index = index
	e.s.turn++
	e.system(fmt.Sprintf("Question %d/%d [%s, %ds]: %s", index+1, e.bank.Len(), q.Level, q.TimeLimitSeconds, q.Text))

	e.timer.Arm(q.TimeLimitSeconds, func() { e.expired = index })

	e.log.Debug("question asked",
		zap.Int(logger.FieldQuestion, index),
		zap.Int("time_limit", q.TimeLimitSeconds),
	)
}

// answer records the answer for the active question and moves on. The
// candidate is persisted when its first answer is recorded and again when
// the interview finishes. A persistence error is returned after the session
// has advanced.
func (e *Engine) answer(ctx context.Context, index int, text string, timedOut bool) error {
	e.timer.Disarm()
	e.expired = noExpiry

	first := e.s.candidate == nil
	if first {
		e.s.candidate = &candidate.Candidate{
			ID:    e.s.id,
			Name:  e.s.fields.Name,
			Email: e.s.fields.Email,
			Phone: e.s.fields.Phone,
		}
	}
	e.s.candidate.Answers = append(e.s.candidate.Answers, text)

	e.log.Info("answer recorded",
		zap.Int(logger.FieldQuestion, index),
		zap.Bool("timed_out", timedOut),
		zap.String("answer_preview", utils.TruncateForLog(text, answerPreviewLength)),
	)

	next := index + 1
	if next >= e.bank.Len() {
		return e.finish(ctx)
	}

	var err error
	if first {
		err = e.persist(ctx)
	}
	e.ask(next)
	return err
}

func (e *Engine) finish(ctx context.Context) error {
	e.timer.Disarm()
	e.s.index = len(e.s.candidate.Answers)
	e.setPhase(PhaseFinished)

	res := e.scorer.Score(e.s.candidate.Clone())
	score := min(max(res.Score, scoring.MinScore), scoring.MaxScore)
	summary := strings.TrimSpace(res.Summary)
	if summary == "" {
		summary = scoring.DefaultSummary
	}

	e.s.candidate.Score = &score
	e.s.candidate.Summary = summary

	err := e.persist(ctx)

	e.system(FinishedText)
	e.log.Info("interview finished",
		zap.Int("score", score),
		zap.Int("answers", len(e.s.candidate.Answers)),
	)
	return err
}

func (e *Engine) persist(ctx context.Context) error {
	if err := e.store.Persist(ctx, e.s.candidate.Clone()); err != nil {
		e.log.Error("persisting candidate", zap.Error(err))
		return fmt.Errorf("persisting candidate: %w", err)
	}
	return nil
}

func (e *Engine) setPhase(p Phase) {
	e.log.Debug("phase changed",
		zap.Stringer("from", e.s.phase),
		zap.Stringer("to", p),
	)
	e.s.phase = p
	e.s.prompted = false
}

func (e *Engine) system(text string) {
	e.append(Message{Sender: SenderSystem, Text: text})
}

func (e *Engine) fromCandidate(text string) {
	e.append(Message{Sender: SenderCandidate, Text: text})
}

func (e *Engine) append(m Message) {
	e.s.messages = append(e.s.messages, m)
	if e.observer != nil {
		e.pending = append(e.pending, m)
	}
}
