package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-screener/internal/ai/analyzer"
	"github.com/spigell/cv-screener/internal/ai/generation"
	"github.com/spigell/cv-screener/internal/ai/ratelimit"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/ledger"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/source"
	"github.com/spigell/cv-screener/internal/store"
)

type stubService struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (s *stubService) GenerateContent(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, nil
}

func (s *stubService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const stubCompletion = "```json\n" + `{
  "conclusion": "Solid Go background",
  "score": 8.2,
  "total_experience_years": 6,
  "structured_data": {"name": "Ana Silva", "hard_skills": ["Go", "Kubernetes"], "soft_skills": []}
}` + "\n```"

func resumeText(words int) string {
	return strings.TrimSpace(strings.Repeat("experienced backend developer ", words/3+1))
}

type endToEnd struct {
	store   *store.Store
	ledger  *ledger.StoreLedger
	service *stubService
	runner  *Runner
}

func newEndToEnd(t *testing.T, root string) *endToEnd {
	t.Helper()

	s, err := store.OpenDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.UpsertOpening(recruiting.Opening{ID: "1", Title: "Backend Engineer", Folder: "dev"}))

	service := &stubService{reply: stubCompletion}
	client := generation.New(service, ratelimit.New(ratelimit.Config{}), generation.Config{MaxAttempts: 1}, nil)
	an, err := analyzer.New(client, analyzer.Config{}, nil)
	require.NoError(t, err)

	l := ledger.NewStoreLedger(s)
	p, err := New(Config{}, Deps{
		Extractor: extract.New(extract.Config{}, nil),
		Analyzer:  an,
		Results:   s,
		Ledger:    l,
	})
	require.NoError(t, err)

	src, err := source.NewLocal(root)
	require.NoError(t, err)

	return &endToEnd{
		store:   s,
		ledger:  l,
		service: service,
		runner:  NewRunner(RunnerConfig{Workers: 3}, p, src, nil),
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "dev")
	require.NoError(t, os.MkdirAll(dev, 0o755))

	resume := []byte(resumeText(120))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "ana_silva.txt"), resume, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "short.txt"), []byte("just a few words"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "photo.png"), []byte("png"), 0o644))

	e := newEndToEnd(t, root)
	openings := e.store.Openings()

	summary := e.runner.Run(context.Background(), openings)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 1, summary.Count(StatePersisted))
	assert.Equal(t, 1, summary.Count(StateSkipped))
	assert.Equal(t, 1, e.service.callCount())

	analyses := e.store.AnalysesByOpening("1")
	require.Len(t, analyses, 1)
	assert.Equal(t, 8.2, analyses[0].Score)
	assert.Equal(t, "Ana Silva", analyses[0].Title)

	summary = e.runner.Run(context.Background(), openings)
	assert.Equal(t, 1, summary.Count(StateDuplicate))
	assert.Equal(t, 1, e.service.callCount())
	assert.Len(t, e.store.AnalysesByOpening("1"), 1)

	seen, err := e.ledger.Seen(context.Background(), "1", ledger.ContentHash(resume))
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRunnerMissingFolder(t *testing.T) {
	e := newEndToEnd(t, t.TempDir())

	summary := e.runner.Run(context.Background(), e.store.Openings())
	assert.Equal(t, 1, summary.FolderErrors)
	assert.Zero(t, summary.Documents)
	assert.Contains(t, summary.String(), "folder_errors=1")
}

func TestRunnerCanceledContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dev"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dev", "a.txt"), []byte(resumeText(120)), 0o644))

	e := newEndToEnd(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := e.runner.Run(ctx, e.store.Openings())
	assert.Zero(t, e.service.callCount())
	assert.Empty(t, e.store.AnalysesByOpening("1"))
	assert.Zero(t, summary.Count(StatePersisted))
}
