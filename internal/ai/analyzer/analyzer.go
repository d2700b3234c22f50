// Package analyzer turns resume text and an opening into a validated ai.Result
// with one generation call, caching successful results for the process lifetime.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/jsonx"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/textnorm"
	"github.com/spigell/cv-screener/internal/utils"
)

const defaultMaxLogLength = 200

type Config struct {
	Version      Version
	MaxLogLength int
}

type Analyzer struct {
	generator ai.Generator
	version   Version
	schema    *jsonschema.Schema
	logger    *zap.Logger
	maxLogLen int

	cacheMu sync.RWMutex
	cache   map[string]*ai.Result
}

func New(generator ai.Generator, cfg Config, logger *zap.Logger) (*Analyzer, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	version, err := ParseVersion(string(cfg.Version))
	if err != nil {
		return nil, err
	}

	schema, err := compileSchema(resultSchema())
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if version.Deprecated() {
		logger.Warn("using deprecated prompt version", zap.String("prompt_version", string(version)))
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Analyzer{
		generator: generator,
		version:   version,
		schema:    schema,
		logger:    logger.With(zap.String("prompt_version", string(version))),
		maxLogLen: maxLogLen,
		cache:     make(map[string]*ai.Result),
	}, nil
}

// Analyze scores resumeText against opening. The returned error wraps
// ai.ErrUnavailable when the generator gave up and ai.ErrInvalid when the
// completion did not satisfy the result schema.
func (a *Analyzer) Analyze(ctx context.Context, resumeText string, opening recruiting.Opening) (*ai.Result, error) {
	resume := textnorm.Normalize(resumeText)
	descriptor := normalizeLines(opening.Descriptor())
	key := cacheKey(resume, descriptor)

	if cached, ok := a.cached(key); ok {
		a.logger.Debug("analysis cache hit", zap.String("opening_id", opening.ID))
		return cached, nil
	}

	prompt, err := BuildPrompt(a.version, resume, descriptor)
	if err != nil {
		return nil, err
	}

	raw := a.generator.Generate(ctx, prompt)
	if raw == "" {
		return nil, ai.ErrUnavailable
	}

	obj := jsonx.ExtractObject(raw)
	if err := a.schema.Validate(obj); err != nil {
		a.logger.Debug("completion failed schema validation",
			zap.String("opening_id", opening.ID),
			zap.String("response_preview", utils.Preview(raw, a.maxLogLen)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalid, err)
	}

	result, err := toResult(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalid, err)
	}
	result.Raw = raw

	a.store(key, result)
	return clone(result), nil
}

// CacheLen returns the number of cached analyses.
func (a *Analyzer) CacheLen() int {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	return len(a.cache)
}

func (a *Analyzer) cached(key string) (*ai.Result, bool) {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	result, ok := a.cache[key]
	if !ok {
		return nil, false
	}
	return clone(result), true
}

func (a *Analyzer) store(key string, result *ai.Result) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	a.cache[key] = clone(result)
}

func cacheKey(resume, descriptor string) string {
	sum := sha256.Sum256([]byte(resume + "\x00" + descriptor))
	return hex.EncodeToString(sum[:])
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = textnorm.Normalize(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func clone(r *ai.Result) *ai.Result {
	c := *r
	c.StructuredData.HardSkills = slices.Clone(r.StructuredData.HardSkills)
	c.StructuredData.SoftSkills = slices.Clone(r.StructuredData.SoftSkills)
	return &c
}
