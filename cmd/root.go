package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interviewer/internal/kv"
	"github.com/spigell/interviewer/internal/questions"
)

const (
	app = "interviewer"
)

type Config struct {
	Resume    string               `mapstructure:"resume"`
	Store     *kv.Config           `mapstructure:"store"`
	Scoring   *ScoringConfig       `mapstructure:"scoring"`
	Questions []questions.Question `mapstructure:"questions"`
}

type ScoringConfig struct {
	Summary string `mapstructure:"summary"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interviewer runs timed technical interviews in the terminal and keeps their results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetDefault("store.driver", kv.DriverSQLite)

	if err := viper.BindEnv("store.path", "INTERVIEWER_STORE_PATH"); err != nil {
		log.Fatalf("binding INTERVIEWER_STORE_PATH environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The env file is optional. Values from it are visible to the bound env keys.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit --config the file is optional and defaults apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// bank returns the configured questions or the built-in bank when none are set.
func (c *Config) bank() (questions.Bank, error) {
	if len(c.Questions) == 0 {
		return questions.Default(), nil
	}
	return questions.New(c.Questions)
}

func (c *Config) summary() string {
	if c.Scoring == nil {
		return ""
	}
	return c.Scoring.Summary
}
