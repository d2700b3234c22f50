// Package extract converts raw PDF, DOCX and plain text documents into
// normalized text. Extraction fails soft: every problem is reported through
// the returned Outcome and logged, never returned as an error.
package extract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/textnorm"
)

const (
	defaultFallbackWords = 30
	defaultMinWords      = 50
)

// Strategy turns raw bytes of one format into text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

type Config struct {
	// FallbackWords is the word count below which the secondary PDF strategy runs.
	FallbackWords int
	// MinWords is the word count below which an outcome is tagged StatusTooShort.
	MinWords int
	// Pdftotext is the poppler binary used by the layout strategy.
	Pdftotext string
}

type Extractor struct {
	cfg    Config
	pdf    []Strategy
	docx   Strategy
	text   Strategy
	logger *zap.Logger
}

// New builds an Extractor with the text-layer PDF reader as primary strategy
// and pdftotext in layout mode as secondary strategy.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.FallbackWords <= 0 {
		cfg.FallbackWords = defaultFallbackWords
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = defaultMinWords
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		cfg:    cfg,
		pdf:    []Strategy{pdfTextLayer{}, &pdfLayout{binary: cfg.Pdftotext, runner: execRunner{}}},
		docx:   docxParagraphs{},
		text:   plainText{},
		logger: logger,
	}
}

// WithPDFStrategies replaces the ordered PDF strategies.
func (e *Extractor) WithPDFStrategies(strategies ...Strategy) *Extractor {
	e.pdf = strategies
	return e
}

// Extract runs the strategies for kind and returns a tagged outcome.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind Kind) Outcome {
	if len(data) == 0 {
		return e.finish("", "", errors.New("empty document"))
	}

	switch kind {
	case KindPDF:
		return e.extractPDF(ctx, data)
	case KindDOCX:
		text, err := e.run(ctx, e.docx, data)
		return e.finish(text, e.docx.Name(), err)
	case KindText:
		text, err := e.run(ctx, e.text, data)
		return e.finish(text, e.text.Name(), err)
	default:
		e.logger.Warn("unsupported document kind", zap.String("kind", string(kind)))
		return Outcome{Status: StatusUnsupported}
	}
}

// Text is the plain contract of the extractor: normalized text or "" on failure.
func (e *Extractor) Text(ctx context.Context, data []byte, kind Kind) string {
	return e.Extract(ctx, data, kind).Text
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) Outcome {
	var (
		best    string
		method  string
		lastErr error
	)

	for i, strategy := range e.pdf {
		if i > 0 && textnorm.WordCount(best) >= e.cfg.FallbackWords {
			break
		}

		text, err := e.run(ctx, strategy, data)
		if err != nil {
			lastErr = err
			continue
		}

		if i > 0 {
			e.logger.Debug("secondary pdf strategy used",
				zap.String("strategy", strategy.Name()),
				zap.Int("previous_words", textnorm.WordCount(best)),
				zap.Int("words", textnorm.WordCount(text)),
			)
		}

		if len(text) > len(best) {
			best = text
			method = strategy.Name()
		}
	}

	if best == "" {
		return e.finish("", method, lastErr)
	}
	return e.finish(best, method, nil)
}

// run invokes a strategy, normalizes its output and turns panics from
// malformed input into errors.
func (e *Extractor) run(ctx context.Context, strategy Strategy, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &strategyPanic{strategy: strategy.Name(), value: r}
		}
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err),
			)
		}
	}()

	raw, err := strategy.Extract(ctx, data)
	if err != nil {
		return "", err
	}
	return textnorm.Normalize(raw), nil
}

func (e *Extractor) finish(text, method string, err error) Outcome {
	words := textnorm.WordCount(text)
	switch {
	case text == "" && err != nil:
		return Outcome{Status: StatusFailed, Method: method, Err: err}
	case words < e.cfg.MinWords:
		return Outcome{Status: StatusTooShort, Text: text, Words: words, Method: method}
	default:
		return Outcome{Status: StatusOK, Text: text, Words: words, Method: method}
	}
}
