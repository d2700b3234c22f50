package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-screener/internal/recruiting"
)

func backendOpening() recruiting.Opening {
	return recruiting.Opening{ID: "1", Title: "Backend Engineer", Folder: "dev"}
}

func TestOpenMissingAndEmptyFile(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Openings())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	s, err = Open(empty)
	require.NoError(t, err)
	assert.Empty(t, s.Openings())

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err = Open(broken)
	require.Error(t, err)
}

func TestOpeningsRoundTripThroughDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenDir(dir)
	require.NoError(t, err)

	require.NoError(t, s.UpsertOpening(backendOpening()))
	updated := backendOpening()
	updated.Level = " Senior "
	require.NoError(t, s.UpsertOpening(updated))
	require.NoError(t, s.UpsertOpening(recruiting.Opening{ID: "0", Title: "Data Analyst", Folder: "data"}))

	err = s.UpsertOpening(recruiting.Opening{ID: "2"})
	require.Error(t, err)

	reopened, err := Open(filepath.Join(dir, FileName))
	require.NoError(t, err)

	openings := reopened.Openings()
	require.Len(t, openings, 2)
	assert.Equal(t, "0", openings[0].ID)
	assert.Equal(t, "Senior", openings[1].Level)

	byTitle, err := reopened.OpeningByTitle("backend engineer")
	require.NoError(t, err)
	assert.Equal(t, "1", byTitle.ID)

	_, err = reopened.Opening("42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultsQueriesAndClear(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	briefID, err := s.InsertBrief(recruiting.Brief{OpeningID: "1", Content: "summary", ContentHash: "h1"})
	require.NoError(t, err)
	require.NotEmpty(t, briefID)

	low, err := s.InsertAnalysis(recruiting.Analysis{OpeningID: "1", BriefID: briefID, Score: 4, ContentHash: "h2"})
	require.NoError(t, err)
	high, err := s.InsertAnalysis(recruiting.Analysis{OpeningID: "1", BriefID: briefID, Score: 8.2, ContentHash: "h1"})
	require.NoError(t, err)
	_, err = s.InsertAnalysis(recruiting.Analysis{OpeningID: "2", Score: 9, ContentHash: "h1"})
	require.NoError(t, err)

	_, err = s.InsertFile(recruiting.FileRecord{OpeningID: "1", FileID: "cv.pdf", ContentHash: "h1"})
	require.NoError(t, err)

	brief, err := s.Brief(briefID)
	require.NoError(t, err)
	assert.False(t, brief.CreatedAt.IsZero())

	analyses := s.AnalysesByOpening("1")
	require.Len(t, analyses, 2)
	assert.Equal(t, high, analyses[0].ID)
	assert.Equal(t, low, analyses[1].ID)

	assert.True(t, s.HasAnalysis("1", "h1"))
	assert.False(t, s.HasAnalysis("1", "h3"))

	file, err := s.FileByHash("1", "h1")
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", file.FileID)
	_, err = s.FileByHash("2", "h1")
	assert.ErrorIs(t, err, ErrNotFound)

	cleared, err := s.ClearOpening("1")
	require.NoError(t, err)
	assert.Equal(t, Cleared{Briefs: 1, Analysis: 2, Files: 1}, cleared)
	assert.Empty(t, s.BriefsByOpening("1"))
	assert.Empty(t, s.AnalysesByOpening("1"))
	assert.Len(t, s.AnalysesByOpening("2"), 1)

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	assert.False(t, reopened.HasAnalysis("1", "h1"))
	assert.True(t, reopened.HasAnalysis("2", "h1"))
}

func TestFailedFlushKeepsMemoryUnchanged(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing-dir", FileName))
	require.NoError(t, err)

	err = s.UpsertOpening(backendOpening())
	require.Error(t, err)
	assert.Empty(t, s.Openings())

	_, err = s.InsertBrief(recruiting.Brief{OpeningID: "1"})
	require.Error(t, err)
	assert.Empty(t, s.BriefsByOpening("1"))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestConcurrentInserts(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertAnalysis(recruiting.Analysis{OpeningID: "1", Score: 5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	assert.Len(t, reopened.AnalysesByOpening("1"), 20)
}
