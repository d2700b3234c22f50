package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-screener"
)

type Config struct {
	OutputDir      string         `mapstructure:"output-dir"`
	Workers        int            `mapstructure:"workers"`
	BatchTimeout   time.Duration  `mapstructure:"batch-timeout"`
	MinWords       int            `mapstructure:"min-words"`
	MaxResumeChars int            `mapstructure:"max-resume-chars"`
	Pdftotext      string         `mapstructure:"pdftotext"`
	Reports        bool           `mapstructure:"reports"`
	OpeningsRoot   string         `mapstructure:"openings-root"`
	TalentBank     string         `mapstructure:"talent-bank"`
	Defaults       DefaultsConfig `mapstructure:"defaults"`
	AI             *AIConfig      `mapstructure:"ai"`
	Ledger         LedgerConfig   `mapstructure:"ledger"`
	Schedule       ScheduleConfig `mapstructure:"schedule"`
}

type DefaultsConfig struct {
	Local        string `mapstructure:"local"`
	Availability string `mapstructure:"availability"`
}

type AIConfig struct {
	Provider        string          `mapstructure:"provider"`
	PromptVersion   string          `mapstructure:"prompt-version"`
	MaxRetries      int             `mapstructure:"max-retries"`
	SemanticRetries int             `mapstructure:"semantic-retries"`
	RateLimit       RateLimitConfig `mapstructure:"rate-limit"`
	Gemini          *GeminiConfig   `mapstructure:"gemini"`
}

type RateLimitConfig struct {
	BaseInterval time.Duration `mapstructure:"base-interval"`
	Increment    time.Duration `mapstructure:"increment"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type LedgerConfig struct {
	// Backend is "store" or "redis".
	Backend  string `mapstructure:"backend"`
	RedisURL string `mapstructure:"redis-url"`
	Prefix   string `mapstructure:"prefix"`
}

type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener scores candidate resumes against job openings with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ledger.redis-url":       "REDIS_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("output-dir", "", "directory holding db.json and markdown reports")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("output-dir", rootCmd.PersistentFlags().Lookup("output-dir"))
}

func setDefaults() {
	viper.SetDefault("output-dir", "output")
	viper.SetDefault("workers", 4)
	viper.SetDefault("min-words", 50)
	viper.SetDefault("max-resume-chars", 3500)
	viper.SetDefault("pdftotext", "pdftotext")
	viper.SetDefault("reports", true)
	viper.SetDefault("openings-root", "openings")
	viper.SetDefault("talent-bank", "talent-bank")
	viper.SetDefault("defaults.local", "Juiz de Fora - MG")
	viper.SetDefault("defaults.availability", "Hibrido")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.prompt-version", "v3")
	viper.SetDefault("ai.max-retries", 5)
	viper.SetDefault("ai.semantic-retries", 3)
	viper.SetDefault("ai.rate-limit.base-interval", "10s")
	viper.SetDefault("ai.rate-limit.increment", "100ms")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("ledger.backend", "store")
	viper.SetDefault("ledger.prefix", "cv-screener:ledger")
	viper.SetDefault("schedule.spec", "@every 6h")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config file is fine: defaults and flags still apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
