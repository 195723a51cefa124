package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/interviewer/internal/candidate"
	"github.com/spigell/interviewer/internal/kv"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/review"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List recorded interviews",
	Run: func(cmd *cobra.Command, _ []string) {
		listCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().Bool("finished", false, "show only completed interviews")
	candidatesCmd.Flags().Int("min-score", 0, "show only candidates scored at least this")
	candidatesCmd.Flags().String("search", "", "show only candidates whose name, email or phone contains this text")
	candidatesCmd.Flags().StringP("format", "o", FormatTable, "output format: table, json or yaml")
}

func listCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, err := kv.Open(config.Store)
	if err != nil {
		logger.Fatal("opening the store",
			zap.Error(err),
			zap.String("hint", "check store.driver and store.path in the config or the INTERVIEWER_STORE_PATH environment variable"),
		)
	}
	defer store.Close()

	all, err := candidate.NewStore(store).ListAll(ctx)
	if err != nil {
		logger.Fatal("listing candidates", zap.Error(err))
	}

	logger.Debug("loaded candidates", zap.Int("count", len(all)))

	flags := cmd.Flags()
	finished, _ := flags.GetBool("finished")
	minScore, _ := flags.GetInt("min-score")
	search, _ := flags.GetString("search")
	format, _ := flags.GetString("format")

	cfg := &review.Config{FinishedOnly: finished, MinScore: minScore, Search: search}
	steps := review.Default()

	for _, status := range review.Describe(steps) {
		logger.Debug("filter configured", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled))
	}

	list, err := review.Run(ctx, cfg, review.Deps{Logger: logger}, steps, review.NewCandidates(all))
	if err != nil {
		logger.Fatal("filtering candidates", zap.Error(err))
	}

	if err := render(cmd.OutOrStdout(), format, list); err != nil {
		logger.Fatal("rendering candidates", zap.Error(err), zap.String("format", format))
	}
}

func render(w io.Writer, format string, list *review.Candidates) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTable, "":
		return renderTable(w, list)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list.Items)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(list.Items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

var tableColumns = []string{"name", "email", "phone", "score", "answered", "summary"}

func renderTable(w io.Writer, list *review.Candidates) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.ToUpper(strings.Join(tableColumns, "\t")))
	for _, row := range list.Report() {
		values := make([]string, 0, len(tableColumns))
		for _, column := range tableColumns {
			values = append(values, row[column])
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}
