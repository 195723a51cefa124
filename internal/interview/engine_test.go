package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/document"
	"github.com/spigell/interviewer/internal/kv"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/scoring"
)

const resumeText = "Curriculum Vitae\nName: Jane Doe\nEmail: jane.doe@gmail.com\nPhone: 9876543210\n"

type fakeDocs struct {
	text string
	err  error
}

func (f *fakeDocs) ExtractText(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type fixedScorer struct {
	result scoring.Result
}

func (f fixedScorer) Score(*candidate.Candidate) scoring.Result {
	return f.result
}

type failingKV struct {
	kv.Store
	err error
}

func (f *failingKV) Set(context.Context, string, []byte) error { return f.err }

type fixture struct {
	engine *Engine
	store  *candidate.Store
	docs   *fakeDocs
}

func newFixture(t *testing.T, bank questions.Bank, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithKV(t, bank, kv.NewMemory(), opts...)
}

func newFixtureWithKV(t *testing.T, bank questions.Bank, backend kv.Store, opts ...Option) *fixture {
	t.Helper()

	docs := &fakeDocs{text: resumeText}
	store := candidate.NewStore(backend)

	engine, err := New(Deps{
		Bank:      bank,
		Documents: docs,
		Scorer:    scoring.NewPlaceholder(""),
		Store:     store,
		Logger:    zap.NewNop(),
	}, append([]Option{WithSessionID("session-1")}, opts...)...)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	return &fixture{engine: engine, store: store, docs: docs}
}

func shortBank(t *testing.T) questions.Bank {
	t.Helper()

	bank, err := questions.New([]questions.Question{
		{Level: questions.LevelEasy, TimeLimitSeconds: 1, Text: "q1"},
		{Level: questions.LevelMedium, TimeLimitSeconds: 2, Text: "q2"},
		{Level: questions.LevelHard, TimeLimitSeconds: 1, Text: "q3"},
	})
	if err != nil {
		t.Fatalf("creating bank: %v", err)
	}
	return bank
}

// startAsking uploads a complete resume and starts the interview.
func (f *fixture) startAsking(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if err := f.engine.UploadDocument(ctx, []byte("%PDF-")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.engine.State().Phase; got != PhaseAskingQuestion {
		t.Fatalf("expected to be asking questions, got %s", got)
	}
}

func (f *fixture) answers() []string {
	c := f.engine.Candidate()
	if c == nil {
		return nil
	}
	return c.Answers
}

func lastMessage(t *testing.T, e *Engine) Message {
	t.Helper()
	msgs := e.Messages()
	if len(msgs) == 0 {
		t.Fatalf("expected messages")
	}
	return msgs[len(msgs)-1]
}

func assertInvariant(t *testing.T, f *fixture) {
	t.Helper()
	state := f.engine.State()
	if got := len(f.answers()); got != state.QuestionIndex {
		t.Fatalf("expected %d answers for question index %d", got, state.QuestionIndex)
	}
	if state.RemainingSeconds > 0 && state.Phase != PhaseAskingQuestion {
		t.Fatalf("timer running in phase %s", state.Phase)
	}
}

func TestUploadPrefillsAllFields(t *testing.T) {
	ctx := context.Background()

	for _, startFirst := range []bool{false, true} {
		t.Run(fmt.Sprintf("start_first=%v", startFirst), func(t *testing.T) {
			f := newFixture(t, questions.Default())

			if startFirst {
				if err := f.engine.Start(ctx); err != nil {
					t.Fatalf("start: %v", err)
				}
			}
			if err := f.engine.UploadDocument(ctx, []byte("%PDF-")); err != nil {
				t.Fatalf("upload: %v", err)
			}
			if !startFirst {
				if err := f.engine.Start(ctx); err != nil {
					t.Fatalf("start: %v", err)
				}
			}

			identity := f.engine.Identity()
			if identity.Name != "Jane Doe" || identity.Email != "jane.doe@gmail.com" || identity.Phone != "9876543210" {
				t.Fatalf("unexpected identity: %+v", identity)
			}

			state := f.engine.State()
			if state.Phase != PhaseAskingQuestion || state.QuestionIndex != 0 {
				t.Fatalf("expected first question, got %+v", state)
			}
			if state.RemainingSeconds != 20 {
				t.Fatalf("expected 20 seconds for the first question, got %d", state.RemainingSeconds)
			}

			for _, m := range f.engine.Messages() {
				if m.Text == PromptEmail || m.Text == PromptPhone {
					t.Fatalf("did not expect a field prompt, got %q", m.Text)
				}
			}

			last := lastMessage(t, f.engine)
			if last.Sender != SenderSystem || !strings.Contains(last.Text, "Explain the difference between let, const, and var in JS.") {
				t.Fatalf("expected first question message, got %+v", last)
			}
		})
	}
}

func TestManualCollectionWithInvalidEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := lastMessage(t, f.engine).Text; got != PromptName {
		t.Fatalf("expected name prompt, got %q", got)
	}

	if err := f.engine.SubmitText(ctx, "Jane"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if got := f.engine.State().Phase; got != PhaseCollectingEmail {
		t.Fatalf("expected email collection, got %s", got)
	}

	turn := f.engine.State().Turn
	before := len(f.engine.Messages())

	err := f.engine.SubmitText(ctx, "jane@yahoo.com")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}

	state := f.engine.State()
	if state.Phase != PhaseCollectingEmail {
		t.Fatalf("expected to stay in email collection, got %s", state.Phase)
	}
	if state.Turn != turn {
		t.Fatalf("a re-prompt must not start a new turn")
	}
	if f.engine.Identity().Email != "" {
		t.Fatalf("rejected email must not be stored")
	}

	added := f.engine.Messages()[before:]
	expected := []Message{
		{Sender: SenderCandidate, Text: "jane@yahoo.com"},
		{Sender: SenderSystem, Text: InvalidEmailText},
		{Sender: SenderSystem, Text: PromptEmail},
	}
	if len(added) != len(expected) {
		t.Fatalf("expected %d new messages, got %+v", len(expected), added)
	}
	for i := range expected {
		if added[i] != expected[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, expected[i], added[i])
		}
	}

	if err := f.engine.SubmitText(ctx, "jane@gmail.com"); err != nil {
		t.Fatalf("valid email: %v", err)
	}
	if got := f.engine.State().Phase; got != PhaseCollectingPhone {
		t.Fatalf("expected phone collection, got %s", got)
	}
	if got := lastMessage(t, f.engine).Text; got != PromptPhone {
		t.Fatalf("expected phone prompt, got %q", got)
	}

	if err := f.engine.SubmitText(ctx, "12345"); !errors.As(err, &verr) || verr.Field != "phone" {
		t.Fatalf("expected phone validation error, got %v", err)
	}
	if err := f.engine.SubmitText(ctx, "9876543210"); err != nil {
		t.Fatalf("valid phone: %v", err)
	}
	if got := f.engine.State().Phase; got != PhaseAskingQuestion {
		t.Fatalf("expected questions to start, got %s", got)
	}
	if f.engine.Candidate() != nil {
		t.Fatalf("candidate must not exist before the first answer")
	}
}

func TestTimeoutRecordsEmptyAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())
	f.startAsking(t)

	for i := 0; i < 19; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
	}

	state := f.engine.State()
	if state.QuestionIndex != 0 || state.RemainingSeconds != 1 {
		t.Fatalf("expected question 0 with 1 second left, got %+v", state)
	}
	if len(f.answers()) != 0 {
		t.Fatalf("expected no answer before the limit")
	}

	if err := f.engine.Tick(ctx); err != nil {
		t.Fatalf("tick 20: %v", err)
	}

	answers := f.answers()
	if len(answers) != 1 || answers[0] != "" {
		t.Fatalf("expected a single empty answer, got %q", answers)
	}

	state = f.engine.State()
	if state.QuestionIndex != 1 || state.RemainingSeconds != 20 {
		t.Fatalf("expected second question armed with 20 seconds, got %+v", state)
	}
	if last := lastMessage(t, f.engine); !strings.Contains(last.Text, "What is JSX in React?") {
		t.Fatalf("expected second question, got %q", last.Text)
	}

	stored, ok, err := f.store.Get(ctx, "session-1")
	if err != nil || !ok {
		t.Fatalf("expected candidate persisted after first answer, ok=%v err=%v", ok, err)
	}
	if len(stored.Answers) != 1 || stored.Finished() {
		t.Fatalf("unexpected stored snapshot: %+v", stored)
	}
}

func TestCompleteInterview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())
	f.startAsking(t)

	for i := 0; i < 6; i++ {
		assertInvariant(t, f)
		if err := f.engine.SubmitText(ctx, fmt.Sprintf("answer %d", i+1)); err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
	}
	assertInvariant(t, f)

	state := f.engine.State()
	if state.Phase != PhaseFinished || state.QuestionIndex != 6 || state.RemainingSeconds != 0 {
		t.Fatalf("unexpected final state: %+v", state)
	}
	if got := lastMessage(t, f.engine).Text; got != FinishedText {
		t.Fatalf("expected finish message, got %q", got)
	}

	all, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(all))
	}

	c := all[0]
	if c.ID != "session-1" || c.Name != "Jane Doe" || c.Email != "jane.doe@gmail.com" || c.Phone != "9876543210" {
		t.Fatalf("unexpected identity in record: %+v", c)
	}
	if len(c.Answers) != 6 || c.Answers[5] != "answer 6" {
		t.Fatalf("expected 6 answers, got %q", c.Answers)
	}
	if c.Score == nil || *c.Score < scoring.MinScore || *c.Score > scoring.MaxScore {
		t.Fatalf("expected score in range, got %v", c.Score)
	}
	if c.Summary == "" {
		t.Fatalf("expected summary")
	}

	messages := len(f.engine.Messages())
	if err := f.engine.SubmitText(ctx, "one more"); err != nil {
		t.Fatalf("input after finish: %v", err)
	}
	if err := f.engine.SubmitAnswer(ctx, 5, "again"); err != nil {
		t.Fatalf("answer after finish: %v", err)
	}
	for i := 0; i < 200; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick after finish: %v", err)
		}
	}
	if len(f.engine.Messages()) != messages {
		t.Fatalf("expected transcript to stay unchanged after finish")
	}
	if len(f.answers()) != 6 {
		t.Fatalf("expected answers to stay unchanged after finish")
	}
}

func TestSubmitThenLateExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shortBank(t))
	f.startAsking(t)

	if err := f.engine.SubmitAnswer(ctx, 0, "manual"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// The tick meant for question 0 arrives late and lands on question 1 (2s limit).
	if err := f.engine.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	answers := f.answers()
	if len(answers) != 1 || answers[0] != "manual" {
		t.Fatalf("expected only the manual answer, got %q", answers)
	}
	if state := f.engine.State(); state.QuestionIndex != 1 || state.RemainingSeconds != 1 {
		t.Fatalf("expected question 1 with one second left, got %+v", state)
	}
}

func TestExpiryThenLateSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shortBank(t))
	f.startAsking(t)

	if err := f.engine.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := f.engine.SubmitAnswer(ctx, 0, "too late"); err != nil {
		t.Fatalf("late answer: %v", err)
	}
	if err := f.engine.SubmitAnswer(ctx, 0, "still too late"); err != nil {
		t.Fatalf("repeated answer: %v", err)
	}

	answers := f.answers()
	if len(answers) != 1 || answers[0] != "" {
		t.Fatalf("expected only the timeout answer, got %q", answers)
	}
	if got := f.engine.State().QuestionIndex; got != 1 {
		t.Fatalf("expected question 1, got %d", got)
	}
	for _, m := range f.engine.Messages() {
		if strings.Contains(m.Text, "late") {
			t.Fatalf("stale answer must not reach the transcript: %+v", m)
		}
	}
}

func TestConcurrentSubmitAndTick(t *testing.T) {
	ctx := context.Background()
	bank := shortBank(t)

	for run := 0; run < 20; run++ {
		f := newFixture(t, bank)
		f.startAsking(t)

		var wg sync.WaitGroup
		for i := 0; i < bank.Len(); i++ {
			for w := 0; w < 4; w++ {
				wg.Add(2)
				go func(index int) {
					defer wg.Done()
					_ = f.engine.SubmitAnswer(ctx, index, fmt.Sprintf("answer %d", index))
				}(i)
				go func() {
					defer wg.Done()
					_ = f.engine.Tick(ctx)
				}()
			}
		}
		wg.Wait()

		// Drain whatever is left through the clock.
		for i := 0; i < 10 && f.engine.State().Phase != PhaseFinished; i++ {
			_ = f.engine.Tick(ctx)
		}

		if got := f.engine.State().Phase; got != PhaseFinished {
			t.Fatalf("run %d: expected finished, got %s", run, got)
		}
		if got := len(f.answers()); got != bank.Len() {
			t.Fatalf("run %d: expected exactly %d answers, got %d", run, bank.Len(), got)
		}
		for i, a := range f.answers() {
			if a != "" && a != fmt.Sprintf("answer %d", i) {
				t.Fatalf("run %d: answer %d recorded for the wrong question: %q", run, i, a)
			}
		}
	}
}

func TestAnswersNeverExceedQuestionIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shortBank(t))
	f.startAsking(t)

	steps := []func(){
		func() { _ = f.engine.Tick(ctx) },
		func() { _ = f.engine.SubmitText(ctx, "typed") },
		func() { _ = f.engine.SubmitAnswer(ctx, 0, "stale") },
		func() { _ = f.engine.Tick(ctx) },
		func() { _ = f.engine.Tick(ctx) },
		func() { _ = f.engine.SubmitText(ctx, "after") },
	}

	previous := 0
	for _, step := range steps {
		step()
		assertInvariant(t, f)
		if got := len(f.answers()); got < previous {
			t.Fatalf("answers shrank from %d to %d", previous, got)
		} else {
			previous = got
		}
	}

	if got := f.engine.State().Phase; got != PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	if answers := f.answers(); strings.Join(answers, "|") != "|typed|" {
		t.Fatalf("unexpected answers: %q", answers)
	}
}

func TestUnsupportedDocumentIsDeclined(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())
	f.docs.err = fmt.Errorf("%w: got text/plain", document.ErrUnsupportedDocument)

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.engine.SubmitText(ctx, "Jane"); err != nil {
		t.Fatalf("name: %v", err)
	}

	err := f.engine.UploadDocument(ctx, []byte("plain text"))
	if !errors.Is(err, document.ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}

	if got := f.engine.State().Phase; got != PhaseCollectingEmail {
		t.Fatalf("expected to stay in email collection, got %s", got)
	}
	if identity := f.engine.Identity(); identity.Email != "" || identity.Phone != "" {
		t.Fatalf("declined document must not fill fields: %+v", identity)
	}
	if got := lastMessage(t, f.engine).Text; got != UploadUnsupportedText {
		t.Fatalf("expected unsupported notice, got %q", got)
	}

	// A retry with a supported document succeeds and keeps the typed name.
	f.docs.err = nil
	if err := f.engine.UploadDocument(ctx, []byte("%PDF-")); err != nil {
		t.Fatalf("retry upload: %v", err)
	}
	if identity := f.engine.Identity(); identity.Name != "Jane" || identity.Phone != "9876543210" {
		t.Fatalf("unexpected identity after retry: %+v", identity)
	}
	if got := f.engine.State().Phase; got != PhaseAskingQuestion {
		t.Fatalf("expected questions to start, got %s", got)
	}
}

func TestExtractionFailureFallsBackToPrompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())
	f.docs.err = fmt.Errorf("%w: malformed", document.ErrExtraction)

	if err := f.engine.UploadDocument(ctx, []byte("%PDF-broken")); err != nil {
		t.Fatalf("expected extraction failure to be absorbed, got %v", err)
	}
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := f.engine.State().Phase; got != PhaseCollectingName {
		t.Fatalf("expected name collection, got %s", got)
	}
	if got := lastMessage(t, f.engine).Text; got != PromptName {
		t.Fatalf("expected name prompt, got %q", got)
	}
}

func TestCanceledUploadLeavesTranscript(t *testing.T) {
	ctx := context.Background()

	for _, cause := range []error{context.Canceled, context.DeadlineExceeded} {
		t.Run(cause.Error(), func(t *testing.T) {
			f := newFixture(t, questions.Default())
			if err := f.engine.Start(ctx); err != nil {
				t.Fatalf("start: %v", err)
			}
			before := f.engine.Messages()

			f.docs.err = cause
			if err := f.engine.UploadDocument(ctx, []byte("%PDF-")); !errors.Is(err, cause) {
				t.Fatalf("expected %v, got %v", cause, err)
			}

			if got := f.engine.Messages(); len(got) != len(before) {
				t.Fatalf("expected transcript unchanged, got %+v", got[len(before):])
			}
			if got := f.engine.State(); got.Phase != PhaseCollectingName || got.Turn != 1 {
				t.Fatalf("expected name collection on turn 1, got %+v", got)
			}
		})
	}
}

func TestPartialDocumentDefersToPrompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())
	f.docs.text = "Name: Jane Doe\ncontact: jane@yahoo.com\n"

	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.engine.UploadDocument(ctx, []byte("%PDF-")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if got := f.engine.State().Phase; got != PhaseCollectingEmail {
		t.Fatalf("expected email collection, got %s", got)
	}
	if got := lastMessage(t, f.engine).Text; got != PromptEmail {
		t.Fatalf("expected email prompt, got %q", got)
	}
}

func TestUploadAfterQuestionsStarted(t *testing.T) {
	f := newFixture(t, questions.Default())
	f.startAsking(t)

	if err := f.engine.UploadDocument(context.Background(), []byte("%PDF-")); !errors.Is(err, ErrUploadClosed) {
		t.Fatalf("expected ErrUploadClosed, got %v", err)
	}
}

func TestInputBeforeStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())

	if err := f.engine.SubmitText(ctx, "Jane"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if err := f.engine.SubmitText(ctx, "   "); err != nil {
		t.Fatalf("expected blank input to be ignored, got %v", err)
	}
	if err := f.engine.Tick(ctx); err != nil {
		t.Fatalf("tick before start: %v", err)
	}
	if len(f.engine.Messages()) != 0 {
		t.Fatalf("expected empty transcript before start")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, questions.Default())

	for i := 0; i < 3; i++ {
		if err := f.engine.Start(ctx); err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	if got := len(f.engine.Messages()); got != 1 {
		t.Fatalf("expected a single prompt, got %d messages", got)
	}
	if got := f.engine.State().Turn; got != 1 {
		t.Fatalf("expected turn 1, got %d", got)
	}
}

func TestPersistFailureStillAdvances(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("store unavailable")
	f := newFixtureWithKV(t, shortBank(t), &failingKV{Store: kv.NewMemory(), err: backendErr})
	f.startAsking(t)

	err := f.engine.SubmitText(ctx, "first")
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := f.engine.State().QuestionIndex; got != 1 {
		t.Fatalf("expected session to advance despite the error, got index %d", got)
	}

	if err := f.engine.SubmitText(ctx, "second"); err != nil {
		t.Fatalf("expected no persist between first answer and finish, got %v", err)
	}
	if err := f.engine.SubmitText(ctx, "third"); !errors.Is(err, backendErr) {
		t.Fatalf("expected store error at finish, got %v", err)
	}
	if got := f.engine.State().Phase; got != PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	if c := f.engine.Candidate(); c == nil || !c.Finished() {
		t.Fatalf("expected scored candidate in memory, got %+v", c)
	}
}

func TestScorerContractIsEnforced(t *testing.T) {
	ctx := context.Background()

	engine, err := New(Deps{
		Bank:      shortBank(t),
		Documents: &fakeDocs{text: resumeText},
		Scorer:    fixedScorer{result: scoring.Result{Score: 250, Summary: "  "}},
		Store:     candidate.NewStore(kv.NewMemory()),
	})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	if err := engine.UploadDocument(ctx, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := engine.SubmitText(ctx, "a"); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	c := engine.Candidate()
	if c.Score == nil || *c.Score != scoring.MaxScore {
		t.Fatalf("expected score clamped to %d, got %v", scoring.MaxScore, c.Score)
	}
	if c.Summary != scoring.DefaultSummary {
		t.Fatalf("expected default summary, got %q", c.Summary)
	}
	if c.ID != engine.ID() || engine.ID() == "" {
		t.Fatalf("expected candidate id to match generated session id")
	}
}

func TestObserverReceivesTranscript(t *testing.T) {
	ctx := context.Background()

	var (
		mu       sync.Mutex
		observed []Message
	)
	var f *fixture
	f = newFixture(t, shortBank(t), WithObserver(func(m Message) {
		// Querying the engine from the observer must not deadlock.
		_ = f.engine.State()
		mu.Lock()
		observed = append(observed, m)
		mu.Unlock()
	}))

	f.startAsking(t)
	_ = f.engine.SubmitText(ctx, "a1")
	_ = f.engine.Tick(ctx)

	mu.Lock()
	defer mu.Unlock()

	transcript := f.engine.Messages()
	if len(observed) != len(transcript) {
		t.Fatalf("expected %d observed messages, got %d", len(transcript), len(observed))
	}
	for i := range transcript {
		if observed[i] != transcript[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, transcript[i], observed[i])
		}
	}
}

func TestRunClockFinishesInterview(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := newFixture(t, shortBank(t), WithTickInterval(time.Millisecond))
	f.startAsking(t)

	if err := f.engine.RunClock(ctx); err != nil {
		t.Fatalf("run clock: %v", err)
	}

	if got := f.engine.State().Phase; got != PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	if answers := f.answers(); len(answers) != 3 || strings.Join(answers, "") != "" {
		t.Fatalf("expected three empty answers, got %q", answers)
	}

	stored, ok, err := f.store.Get(ctx, "session-1")
	if err != nil || !ok || !stored.Finished() {
		t.Fatalf("expected finished record, got %+v ok=%v err=%v", stored, ok, err)
	}
}

func TestRunClockStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, questions.Default(), WithTickInterval(time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- f.engine.RunClock(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("clock did not stop after cancel")
	}
}

func TestEngineLogsSessionFields(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)

	engine, err := New(Deps{
		Bank:      shortBank(t),
		Documents: &fakeDocs{text: resumeText},
		Store:     candidate.NewStore(kv.NewMemory()),
		Logger:    zap.New(core),
	}, WithSessionID("abc"))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	_ = engine.UploadDocument(ctx, nil)
	_ = engine.Start(ctx)
	_ = engine.SubmitText(ctx, "a very long answer about closures")

	entries := logs.FilterMessage("answer recorded").All()
	if len(entries) != 1 {
		t.Fatalf("expected one answer log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["session_id"] != "abc" {
		t.Fatalf("expected session id field, got %v", fields["session_id"])
	}
	if fields["question_index"] != int64(0) {
		t.Fatalf("expected question index 0, got %v", fields["question_index"])
	}
	if fields["timed_out"] != false {
		t.Fatalf("expected timed_out false, got %v", fields["timed_out"])
	}
}

func TestNewValidatesDeps(t *testing.T) {
	store := candidate.NewStore(kv.NewMemory())

	if _, err := New(Deps{Store: store}); err == nil {
		t.Fatalf("expected error for empty bank")
	}
	if _, err := New(Deps{Bank: questions.Default()}); err == nil {
		t.Fatalf("expected error for missing store")
	}
}

func TestPhaseString(t *testing.T) {
	for phase, expect := range map[Phase]string{
		PhaseCollectingName:  "collecting_name",
		PhaseCollectingEmail: "collecting_email",
		PhaseCollectingPhone: "collecting_phone",
		PhaseAskingQuestion:  "asking_question",
		PhaseFinished:        "finished",
		Phase(42):            "unknown",
	} {
		if got := phase.String(); got != expect {
			t.Fatalf("expected %q, got %q", expect, got)
		}
	}
}
