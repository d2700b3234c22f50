package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/analyzer"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/ai/generation"
	"github.com/spigell/cv-screener/internal/ai/ratelimit"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/ledger"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/openings"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/secrets"
	"github.com/spigell/cv-screener/internal/source"
	"github.com/spigell/cv-screener/internal/store"
)

// application holds what every command needs: config, logger and the result store.
type application struct {
	cfg     *Config
	logger  *zap.Logger
	store   *store.Store
	closers []func() error
}

func newApplication() *application {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	s, err := store.OpenDir(config.OutputDir)
	if err != nil {
		logger.Fatal("opening the result store", zap.Error(err), zap.String("output_dir", config.OutputDir))
	}

	return &application{cfg: config, logger: logger, store: s}
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *application) extractor() *extract.Extractor {
	return extract.New(extract.Config{
		MinWords:  a.cfg.MinWords,
		Pdftotext: a.cfg.Pdftotext,
	}, a.logger.Named("extract"))
}

// generator builds the rate limited, retrying generation client.
func (a *application) generator(ctx context.Context) (ai.Generator, error) {
	cfg := a.cfg.AI
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	service, err := gemini.NewClient(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithFields(a.logger, logger.CommonFields("gemini", service.Model())...).With(
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	limiter := ratelimit.New(ratelimit.Config{
		BaseInterval: cfg.RateLimit.BaseInterval,
		Increment:    cfg.RateLimit.Increment,
	})

	return generation.New(service, limiter, generation.Config{
		MaxAttempts:  cfg.MaxRetries,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, genLogger), nil
}

func (a *application) ledger(ctx context.Context) (ledger.Ledger, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.Ledger.Backend)) {
	case "", "store":
		return ledger.NewStoreLedger(a.store), nil
	case "redis":
		client, err := ledger.NewRedisClient(ctx, a.cfg.Ledger.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return ledger.WithAnalyses(ledger.NewRedis(client, a.cfg.Ledger.Prefix), a.store), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", a.cfg.Ledger.Backend)
	}
}

func (a *application) runner(ctx context.Context) (*pipeline.Runner, error) {
	generator, err := a.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("building generation client: %w", err)
	}

	an, err := analyzer.New(generator, analyzer.Config{
		Version:      analyzer.Version(a.cfg.AI.PromptVersion),
		MaxLogLength: a.cfg.AI.Gemini.MaxLogLength,
	}, a.logger.Named("analyzer"))
	if err != nil {
		return nil, fmt.Errorf("building analyzer: %w", err)
	}

	l, err := a.ledger(ctx)
	if err != nil {
		return nil, fmt.Errorf("building ledger: %w", err)
	}

	reportDir := ""
	if a.cfg.Reports {
		reportDir = a.cfg.OutputDir
	}

	p, err := pipeline.New(pipeline.Config{
		MaxResumeChars:  a.cfg.MaxResumeChars,
		SemanticRetries: a.cfg.AI.SemanticRetries,
		Defaults: pipeline.Defaults{
			Local:        a.cfg.Defaults.Local,
			Availability: a.cfg.Defaults.Availability,
		},
		ReportDir: reportDir,
	}, pipeline.Deps{
		Extractor: a.extractor(),
		Analyzer:  an,
		Results:   a.store,
		Ledger:    l,
		Logger:    a.logger.Named("pipeline"),
	})
	if err != nil {
		return nil, err
	}

	src, err := source.NewLocal(filepath.Clean(a.cfg.TalentBank))
	if err != nil {
		return nil, fmt.Errorf("opening talent bank: %w", err)
	}

	return pipeline.NewRunner(pipeline.RunnerConfig{
		Workers:      a.cfg.Workers,
		BatchTimeout: a.cfg.BatchTimeout,
	}, p, src, a.logger), nil
}

// talentBank opens the talent bank root, creating it on first use.
func (a *application) talentBank() (*source.Local, error) {
	root := filepath.Clean(a.cfg.TalentBank)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating talent bank: %w", err)
	}
	return source.NewLocal(root)
}

func (a *application) importer(ctx context.Context) (*openings.Importer, error) {
	generator, err := a.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("building generation client: %w", err)
	}

	src, err := source.NewLocal(filepath.Clean(a.cfg.OpeningsRoot))
	if err != nil {
		return nil, fmt.Errorf("opening openings root: %w", err)
	}

	bank, err := a.talentBank()
	if err != nil {
		return nil, err
	}

	return openings.NewImporter(openings.Config{
		DefaultLocal:        a.cfg.Defaults.Local,
		DefaultAvailability: a.cfg.Defaults.Availability,
	}, openings.Deps{
		Source:    src,
		Extractor: a.extractor(),
		Generator: generator,
		Store:     a.store,
		Folders:   bank,
		Logger:    a.logger.Named("openings"),
	})
}
