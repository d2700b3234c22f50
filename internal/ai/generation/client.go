// Package generation wraps a text-generation service with the process-wide
// rate limiter and a retry policy that depends on the failure reason.
package generation

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/ratelimit"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	DefaultMaxAttempts   = 5
	DefaultRateLimitBase = 2 * time.Second
	DefaultTimeoutPause  = 10 * time.Second
	DefaultErrorPause    = 5 * time.Second

	defaultMaxLogLength = 200
)

type Config struct {
	MaxAttempts int
	// RateLimitBase is the base of the exponential backoff applied to quota errors.
	RateLimitBase time.Duration
	// TimeoutPause is the fixed pause after a timeout-like failure.
	TimeoutPause time.Duration
	// ErrorPause is the fixed pause after any other failure.
	ErrorPause   time.Duration
	MaxLogLength int
}

func (c *Config) setDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RateLimitBase <= 0 {
		c.RateLimitBase = DefaultRateLimitBase
	}
	if c.TimeoutPause <= 0 {
		c.TimeoutPause = DefaultTimeoutPause
	}
	if c.ErrorPause <= 0 {
		c.ErrorPause = DefaultErrorPause
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
}

// Client implements ai.Generator.
type Client struct {
	service ai.Service
	limiter *ratelimit.Limiter
	cfg     Config
	logger  *zap.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

var _ ai.Generator = (*Client)(nil)

func New(service ai.Service, limiter *ratelimit.Limiter, cfg Config, logger *zap.Logger) *Client {
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{})
	}

	return &Client{
		service: service,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		sleep:   utils.WaitFor,
		jitter: func() time.Duration {
			return time.Duration(rand.Float64() * float64(time.Second))
		},
	}
}

// Generate returns the completion for prompt, or "" once every attempt has
// failed or ctx is done. Failures are logged, never returned.
func (c *Client) Generate(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		c.logger.Warn("refusing to send empty prompt")
		return ""
	}

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if _, err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warn("rate limiter wait aborted", zap.Error(err))
			return ""
		}

		c.logger.Debug("generate content request",
			zap.Int("attempt", attempt+1),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.Preview(prompt, c.cfg.MaxLogLength)),
		)

		output, err := c.service.GenerateContent(ctx, prompt)
		if err == nil {
			output = strings.TrimSpace(output)
			if output != "" {
				c.logger.Debug("generate content response",
					zap.Int("attempt", attempt+1),
					zap.Int("response_length", utf8.RuneCountInString(output)),
					zap.String("response_preview", utils.Preview(output, c.cfg.MaxLogLength)),
				)
				return output
			}
			err = errors.New("empty completion")
		}

		if ctx.Err() != nil {
			c.logger.Warn("generation cancelled", zap.Error(ctx.Err()))
			return ""
		}

		reason := Classify(err)
		c.logger.Warn("generation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)

		if attempt == c.cfg.MaxAttempts-1 {
			break
		}

		pause := c.Backoff(reason, attempt)
		c.logger.Info("waiting before next generation attempt",
			zap.String("reason", string(reason)),
			zap.Duration("pause", pause),
		)
		if err := c.sleep(ctx, pause); err != nil {
			return ""
		}
	}

	c.logger.Error("generation retries exhausted", zap.Int("attempts", c.cfg.MaxAttempts))
	return ""
}

// Backoff returns the pause after a failed attempt (zero based).
func (c *Client) Backoff(reason Reason, attempt int) time.Duration {
	switch reason {
	case ReasonRateLimit:
		return c.cfg.RateLimitBase*time.Duration(1<<attempt) + c.jitter()
	case ReasonTimeout:
		return c.cfg.TimeoutPause
	default:
		return c.cfg.ErrorPause
	}
}
