// Package pipeline screens candidate documents against openings: it extracts
// text, asks the analyzer for a scored result and persists it exactly once per
// document content and opening.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/ledger"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/textnorm"
)

const (
	DefaultMaxResumeChars  = 3500
	DefaultSemanticRetries = 3
	DefaultLocal           = "Juiz de Fora - MG"
	DefaultAvailability    = "Hibrido"
)

type Extractor interface {
	Extract(ctx context.Context, data []byte, kind extract.Kind) extract.Outcome
}

type Analyzer interface {
	Analyze(ctx context.Context, resumeText string, opening recruiting.Opening) (*ai.Result, error)
}

// Results is the write side of the result store.
type Results interface {
	InsertBrief(b recruiting.Brief) (string, error)
	InsertAnalysis(a recruiting.Analysis) (string, error)
}

// Defaults fill analysis fields the opening leaves empty.
type Defaults struct {
	Local        string
	Availability string
}

type Config struct {
	MaxResumeChars int
	// SemanticRetries caps generations per document when completions are invalid.
	SemanticRetries int
	Defaults        Defaults
	// ReportDir receives one markdown report per persisted analysis. Empty disables reports.
	ReportDir string
}

func (c *Config) setDefaults() {
	if c.MaxResumeChars <= 0 {
		c.MaxResumeChars = DefaultMaxResumeChars
	}
	if c.SemanticRetries <= 0 {
		c.SemanticRetries = DefaultSemanticRetries
	}
	if strings.TrimSpace(c.Defaults.Local) == "" {
		c.Defaults.Local = DefaultLocal
	}
	if strings.TrimSpace(c.Defaults.Availability) == "" {
		c.Defaults.Availability = DefaultAvailability
	}
}

// Deps aggregates the collaborators of a Pipeline.
type Deps struct {
	Extractor Extractor
	Analyzer  Analyzer
	Results   Results
	Ledger    ledger.Ledger
	Logger    *zap.Logger
}

type Document struct {
	ID   string
	Name string
	Data []byte
}

// Report is the outcome of processing one document.
type Report struct {
	Document    string
	ContentHash string
	State       State
	Reason      string
	Attempts    int
	Result      *ai.Result
	BriefID     string
	AnalysisID  string
}

type Pipeline struct {
	cfg  Config
	deps Deps

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Extractor == nil || deps.Analyzer == nil || deps.Results == nil || deps.Ledger == nil {
		return nil, errors.New("pipeline requires an extractor, an analyzer, a result store and a ledger")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg.setDefaults()

	return &Pipeline{cfg: cfg, deps: deps, inflight: make(map[string]struct{})}, nil
}

// Process screens doc for opening. It never returns an error: every failure
// ends in a terminal state carried by the report.
func (p *Pipeline) Process(ctx context.Context, doc Document, opening recruiting.Opening) Report {
	hash := ledger.ContentHash(doc.Data)
	report := Report{Document: doc.ID, ContentHash: hash, State: StatePending}
	log := logger.WithFields(p.deps.Logger, logger.DocumentFields(doc.ID, opening.ID, hash)...)

	move := func(state State, reason string) {
		report.State = state
		report.Reason = reason
		fields := []zap.Field{zap.Stringer("state", state)}
		if reason != "" {
			fields = append(fields, zap.String("reason", reason))
		}
		log.Debug("document state", fields...)
	}

	release, ok := p.claim(opening.ID, hash)
	if !ok {
		move(StateDuplicate, "identical document is being processed")
		return report
	}
	defer release()

	seen, err := p.deps.Ledger.Seen(ctx, opening.ID, hash)
	if err != nil {
		move(StateAbandoned, fmt.Sprintf("ledger lookup: %v", err))
		log.Warn("document abandoned", zap.String("reason", report.Reason))
		return report
	}
	if seen {
		move(StateDuplicate, "already screened")
		return report
	}

	kind, ok := extract.KindFromName(doc.Name)
	if !ok {
		move(StateSkipped, "unsupported document type")
		return report
	}

	outcome := p.deps.Extractor.Extract(ctx, doc.Data, kind)
	switch outcome.Status {
	case extract.StatusOK:
		move(StateTextExtracted, "")
	case extract.StatusFailed:
		move(StateAbandoned, outcome.Reason())
		log.Warn("document abandoned", zap.String("reason", report.Reason))
		return report
	default:
		move(StateSkipped, outcome.Reason())
		log.Info("document skipped", zap.String("reason", report.Reason))
		return report
	}

	resume := textnorm.Truncate(outcome.Text, p.cfg.MaxResumeChars)

	result, err := p.generate(ctx, resume, opening, &report, move)
	if err != nil {
		move(StateAbandoned, err.Error())
		log.Warn("document abandoned", zap.String("reason", report.Reason), zap.Int("attempts", report.Attempts))
		return report
	}
	move(StateValidated, "")
	report.Result = result

	analysis := p.analysisFor(doc, opening, hash, result)
	if err := p.persist(ctx, doc, opening, hash, result, &analysis, &report); err != nil {
		move(StateAbandoned, err.Error())
		log.Error("document abandoned", zap.String("reason", report.Reason))
		return report
	}
	move(StatePersisted, "")

	if p.cfg.ReportDir != "" {
		if file, err := writeMarkdown(p.cfg.ReportDir, opening, analysis, result); err != nil {
			log.Warn("write markdown report", zap.Error(err))
		} else {
			log.Debug("markdown report written", zap.String("path", file))
		}
	}

	log.Info("document screened",
		zap.String("candidate", analysis.Title),
		zap.Float64("score", result.Score),
		zap.Int("attempts", report.Attempts),
	)
	return report
}

// generate runs the outer retry over semantically invalid completions.
func (p *Pipeline) generate(ctx context.Context, resume string, opening recruiting.Opening, report *Report, move func(State, string)) (*ai.Result, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.SemanticRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report.Attempts = attempt + 1
		result, err := p.deps.Analyzer.Analyze(ctx, resume, opening)
		if attempt == 0 {
			move(StateGenerated, "")
		} else {
			move(StateRetryGenerated, "")
		}

		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, ai.ErrInvalid):
			lastErr = err
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("no valid result after %d attempts: %w", p.cfg.SemanticRetries, lastErr)
}

// persist writes the brief, the analysis and the ledger entry in that order.
// A failure stops the sequence without undoing earlier writes.
func (p *Pipeline) persist(ctx context.Context, doc Document, opening recruiting.Opening, hash string, result *ai.Result, analysis *recruiting.Analysis, report *Report) error {
	briefID, err := p.deps.Results.InsertBrief(recruiting.Brief{
		OpeningID:    opening.ID,
		OpeningTitle: opening.Title,
		Content:      result.BriefContent,
		Conclusion:   result.Conclusion,
		File:         doc.ID,
		ContentHash:  hash,
	})
	if err != nil {
		return fmt.Errorf("persist brief: %w", err)
	}
	report.BriefID = briefID

	analysis.BriefID = briefID
	analysisID, err := p.deps.Results.InsertAnalysis(*analysis)
	if err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}
	analysis.ID = analysisID
	report.AnalysisID = analysisID

	if err := p.deps.Ledger.Record(ctx, ledger.Entry{
		ContentHash:  hash,
		OpeningID:    opening.ID,
		OpeningTitle: opening.Title,
		DocumentID:   doc.ID,
	}); err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}

func (p *Pipeline) analysisFor(doc Document, opening recruiting.Opening, hash string, result *ai.Result) recruiting.Analysis {
	name := result.StructuredData.Name
	if name == "" {
		name = strings.TrimSuffix(doc.Name, path.Ext(doc.Name))
	}

	return recruiting.Analysis{
		OpeningID:            opening.ID,
		OpeningTitle:         opening.Title,
		OpeningFolder:        opening.Folder,
		Title:                name,
		FormalEducation:      result.StructuredData.FormalEducation,
		SoftSkills:           result.StructuredData.SoftSkills,
		HardSkills:           result.StructuredData.HardSkills,
		Local:                firstNonBlank(opening.Local, p.cfg.Defaults.Local),
		Level:                strings.TrimSpace(opening.Level),
		Availability:         firstNonBlank(opening.Availability, p.cfg.Defaults.Availability),
		Score:                result.Score,
		TotalExperienceYears: result.TotalExperienceYears,
		ContentHash:          hash,
	}
}

// claim reserves (opening, hash) for the caller until release is called.
func (p *Pipeline) claim(openingID, hash string) (release func(), ok bool) {
	key := openingID + "\x00" + hash

	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()

	if _, busy := p.inflight[key]; busy {
		return nil, false
	}
	p.inflight[key] = struct{}{}

	return func() {
		p.inflightMu.Lock()
		delete(p.inflight, key)
		p.inflightMu.Unlock()
	}, true
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
