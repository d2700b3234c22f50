package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/source"
)

const DefaultWorkers = 4

type RunnerConfig struct {
	// Root is the source folder holding one sub-folder per opening folder.
	Root    string
	Workers int
	// BatchTimeout bounds a whole Run. Zero means no limit.
	BatchTimeout time.Duration
}

// Runner feeds every candidate file of every opening through a Pipeline with
// a bounded number of concurrent documents.
type Runner struct {
	cfg      RunnerConfig
	pipeline *Pipeline
	source   source.Source
	logger   *zap.Logger
}

func NewRunner(cfg RunnerConfig, p *Pipeline, src source.Source, log *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, pipeline: p, source: src, logger: log}
}

// Summary counts documents per terminal state.
type Summary struct {
	Documents    int
	States       map[State]int
	FolderErrors int
}

func (s Summary) Count(state State) int { return s.States[state] }

func (s Summary) String() string {
	states := slices.Sorted(maps.Keys(s.States))
	parts := make([]string, 0, len(states))
	for _, state := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", state, s.States[state]))
	}
	return fmt.Sprintf("documents=%d %s folder_errors=%d", s.Documents, strings.Join(parts, " "), s.FolderErrors)
}

type tally struct {
	mu      sync.Mutex
	summary Summary
}

func (t *tally) add(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Documents++
	t.summary.States[state]++
}

func (t *tally) folderError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.FolderErrors++
}

// Run screens the documents of every opening. Per-document failures never
// stop the batch; cancellation of ctx or the batch timeout does.
func (r *Runner) Run(ctx context.Context, openings []recruiting.Opening) Summary {
	if r.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.BatchTimeout)
		defer cancel()
	}

	t := &tally{summary: Summary{States: map[State]int{}}}

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)

	for _, opening := range openings {
		log := logger.WithFields(r.logger, logger.OpeningFields(opening.ID, opening.Title)...)

		files, err := r.candidates(ctx, opening)
		if err != nil {
			log.Warn("cannot list opening folder", zap.String("folder", opening.Folder), zap.Error(err))
			t.folderError()
			continue
		}
		log.Info("screening opening", zap.Int("documents", len(files)))

		for _, file := range files {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				t.add(r.screen(ctx, file, opening, log))
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Warn("batch interrupted", zap.Error(err))
	}
	r.logger.Info("batch finished", zap.Stringer("summary", t.summary))
	return t.summary
}

func (r *Runner) candidates(ctx context.Context, opening recruiting.Opening) ([]source.Entry, error) {
	folder, err := source.FindFolder(ctx, r.source, r.cfg.Root, opening.Folder)
	if err != nil {
		return nil, err
	}
	entries, err := r.source.ListFolder(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	return source.CandidateFiles(entries), nil
}

func (r *Runner) screen(ctx context.Context, file source.Entry, opening recruiting.Opening, log *zap.Logger) State {
	data, err := r.source.Download(ctx, file.ID)
	if err != nil {
		log.Warn("download failed", zap.String("document", file.ID), zap.Error(err))
		return StateAbandoned
	}
	return r.pipeline.Process(ctx, Document{ID: file.ID, Name: file.Name, Data: data}, opening).State
}
