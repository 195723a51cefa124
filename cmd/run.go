package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/document"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/kv"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/scoring"
)

const (
	PromptUpload = "Upload a PDF resume"
	PromptManual = "Enter my details manually"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interview session",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "a PDF resume to upload before the interview starts")
	runCmd.Flags().StringP("session-id", "s", "", "use the given session id instead of a generated one")

	viper.BindPFlag("resume", runCmd.Flags().Lookup("resume"))
}

// run is the interview command.
func run(cmd *cobra.Command) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interviewer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	bank, err := config.bank()
	if err != nil {
		logger.Fatal("loading questions",
			zap.Error(err),
			zap.String("hint", "every question needs a level (Easy, Medium or Hard), a positive time-limit and a text"),
		)
	}

	store, err := kv.Open(config.Store)
	if err != nil {
		logger.Fatal("opening the store",
			zap.Error(err),
			zap.String("hint", "check store.driver and store.path in the config or the INTERVIEWER_STORE_PATH environment variable"),
		)
	}
	defer store.Close()

	engine, err := interview.New(interview.Deps{
		Bank:      bank,
		Documents: document.NewPDF(logger),
		Scorer:    scoring.NewPlaceholder(config.summary()),
		Store:     candidate.NewStore(store),
		Logger:    logger,
	},
		interview.WithSessionID(cmd.Flag("session-id").Value.String()),
		interview.WithObserver(printMessage),
	)
	if err != nil {
		logger.Fatal("creating the interview", zap.Error(err))
	}

	logger.Info("session created", zap.String("session_id", engine.ID()), zap.Int("questions", bank.Len()))

	if err := uploadResume(ctx, engine, config.Resume, logger); err != nil {
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "interrupted"))
			return
		}
		logger.Fatal("uploading the resume", zap.Error(err))
	}

	if err := engine.Start(ctx); err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	clockDone := make(chan struct{})
	go func() {
		defer close(clockDone)
		if err := engine.RunClock(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("interview clock stopped", zap.Error(err))
		}
	}()

	ask := promptAsker(newTerminal(os.Stdin), clockDone)
	if err := converse(ctx, engine, ask, os.Stdout, logger); err != nil {
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "interrupted"), zap.Stringer("phase", engine.State().Phase))
			return
		}
		logger.Fatal("exiting", zap.Error(err))
	}

	if c := engine.Candidate(); c != nil && c.Score != nil {
		logger.Info("interview recorded",
			zap.String("name", c.Name),
			zap.Int("score", *c.Score),
			zap.String("summary", c.Summary),
		)
	}
}

func printMessage(m interview.Message) {
	fmt.Printf("%s: %s\n", m.Sender, m.Text)
}

// uploadResume uploads path when it is set. Otherwise the candidate chooses
// between uploading a resume and typing the details.
func uploadResume(ctx context.Context, engine *interview.Engine, path string, logger *zap.Logger) error {
	if path = strings.TrimSpace(path); path != "" {
		err := uploadFile(ctx, engine, path)
		if errors.Is(err, document.ErrUnsupportedDocument) {
			logger.Warn("resume declined, continuing with manual entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		return err
	}

	choice := promptui.Select{
		Label: "How do you want to start?",
		Items: []string{PromptUpload, PromptManual},
	}

	for {
		_, action, err := choice.Run()
		if err != nil {
			return promptError(err)
		}

		if action == PromptManual {
			return nil
		}

		pathPrompt := promptui.Prompt{
			Label:    "Path to your resume",
			Validate: validatePDFPath,
		}

		path, err := pathPrompt.Run()
		if err != nil {
			return promptError(err)
		}

		err = uploadFile(ctx, engine, path)
		switch {
		case errors.Is(err, document.ErrUnsupportedDocument):
			logger.Warn("resume declined", zap.String("path", path), zap.Error(err))
			continue
		case err != nil:
			logger.Warn("reading resume", zap.String("path", path), zap.Error(err))
			continue
		}
		return nil
	}
}

func uploadFile(ctx context.Context, engine *interview.Engine, path string) error {
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return engine.UploadDocument(ctx, data)
}

func validatePDFPath(input string) error {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(input)), ".pdf") {
		return errors.New("only .pdf files are supported")
	}
	return nil
}

// askFunc shows a prompt with label and returns the line typed.
type askFunc func(label string) (string, error)

// promptAsker reads lines with promptui. Open prompts are released once stop
// closes, so the command exits when the interview finishes on a timeout.
func promptAsker(term *terminal, stop <-chan struct{}) askFunc {
	return func(label string) (string, error) {
		input := promptui.Prompt{
			Label: label,
			Stdin: term.input(stop),
		}
		return input.Run()
	}
}

// converse reads candidate input until the interview finishes. Answers carry
// the index of the question shown when the prompt opened. When that question
// timed out in the meantime the engine drops the answer and the candidate is
// told so on out.
func converse(ctx context.Context, engine *interview.Engine, ask askFunc, out io.Writer, logger *zap.Logger) error {
	for {
		if ctx.Err() != nil {
			return errExit
		}

		state := engine.State()
		if state.Phase == interview.PhaseFinished {
			return nil
		}

		label := "You"
		if state.Phase == interview.PhaseAskingQuestion {
			label = fmt.Sprintf("Answer %d (%ds left)", state.QuestionIndex+1, state.RemainingSeconds)
		}

		text, err := ask(label)
		if err != nil {
			if engine.State().Phase == interview.PhaseFinished {
				return nil
			}
			return promptError(err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if state.Phase == interview.PhaseAskingQuestion {
			err = engine.SubmitAnswer(ctx, state.QuestionIndex, text)
			if !answerRecorded(engine, state.QuestionIndex, text) {
				logger.Info("answer arrived after the question timed out", zap.Int("question_index", state.QuestionIndex))
				fmt.Fprintln(out, lateAnswerNotice(state.QuestionIndex, engine.State()))
			}
		} else {
			err = engine.SubmitText(ctx, text)
		}

		var invalid *interview.ValidationError
		switch {
		case errors.As(err, &invalid):
			logger.Debug("input rejected", zap.String("field", invalid.Field))
		case err != nil:
			logger.Error("submitting input", zap.Error(err))
		}
	}
}

func answerRecorded(engine *interview.Engine, index int, text string) bool {
	c := engine.Candidate()
	return c != nil && index < len(c.Answers) && c.Answers[index] == text
}

func lateAnswerNotice(index int, now interview.State) string {
	if now.Phase == interview.PhaseFinished {
		return fmt.Sprintf("Time ran out for question %d; your answer was not recorded. The interview is over.", index+1)
	}
	return fmt.Sprintf("Time ran out for question %d; your answer was not recorded. Answer question %d now.", index+1, now.QuestionIndex+1)
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errExit
	}
	return fmt.Errorf("reading input: %w", err)
}
