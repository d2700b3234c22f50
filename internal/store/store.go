// Package store keeps openings and screening results in a single JSON
// document with one collection per record kind.
package store

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/cv-screener/internal/recruiting"
)

// FileName is the document name inside the output directory.
const FileName = "db.json"

var ErrNotFound = errors.New("record not found")

type document struct {
	Openings map[string]recruiting.Opening    `json:"openings"`
	Briefs   map[string]recruiting.Brief      `json:"briefs"`
	Analysis map[string]recruiting.Analysis   `json:"analysis"`
	Files    map[string]recruiting.FileRecord `json:"files"`
}

func newDocument() document {
	return document{
		Openings: map[string]recruiting.Opening{},
		Briefs:   map[string]recruiting.Brief{},
		Analysis: map[string]recruiting.Analysis{},
		Files:    map[string]recruiting.FileRecord{},
	}
}

// Store is safe for concurrent use. Every mutation is flushed to disk before
// it returns; a failed flush leaves the in-memory state unchanged.
type Store struct {
	path string

	mu   sync.Mutex
	data document

	now   func() time.Time
	newID func() string
}

// Open loads path, creating an empty document when the file is missing or empty.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		data:  newDocument(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat store: %w", err)
	}
	if stat.Size() == 0 {
		return s, nil
	}

	if err := json.NewDecoder(file).Decode(&s.data); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	s.fillCollections()

	return s, nil
}

// OpenDir opens FileName inside dir, creating dir when needed.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return Open(filepath.Join(dir, FileName))
}

func (s *Store) Path() string { return s.path }

func (s *Store) fillCollections() {
	empty := newDocument()
	if s.data.Openings == nil {
		s.data.Openings = empty.Openings
	}
	if s.data.Briefs == nil {
		s.data.Briefs = empty.Briefs
	}
	if s.data.Analysis == nil {
		s.data.Analysis = empty.Analysis
	}
	if s.data.Files == nil {
		s.data.Files = empty.Files
	}
}

// flush writes the document to a temp file next to path and renames it over path.
// Callers hold mu.
func (s *Store) flush() error {
	dir := filepath.Dir(s.path)
	file, err := os.CreateTemp(dir, ".db_*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := file.Name()
	defer os.Remove(tmp)

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		file.Close()
		return fmt.Errorf("encode store: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// UpsertOpening validates the opening and stores it under its id.
func (s *Store) UpsertOpening(o recruiting.Opening) error {
	o.Normalize()
	if err := o.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data.Openings[o.ID]
	s.data.Openings[o.ID] = o
	if err := s.flush(); err != nil {
		if existed {
			s.data.Openings[o.ID] = prev
		} else {
			delete(s.data.Openings, o.ID)
		}
		return err
	}
	return nil
}

func (s *Store) Opening(id string) (recruiting.Opening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.data.Openings[id]
	if !ok {
		return recruiting.Opening{}, fmt.Errorf("opening %q: %w", id, ErrNotFound)
	}
	return o, nil
}

// OpeningByTitle matches titles case-insensitively.
func (s *Store) OpeningByTitle(title string) (recruiting.Opening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.data.Openings {
		if strings.EqualFold(strings.TrimSpace(o.Title), strings.TrimSpace(title)) {
			return o, nil
		}
	}
	return recruiting.Opening{}, fmt.Errorf("opening titled %q: %w", title, ErrNotFound)
}

// Openings returns every opening ordered by id.
func (s *Store) Openings() []recruiting.Opening {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Collect(maps.Values(s.data.Openings))
	slices.SortFunc(out, func(a, b recruiting.Opening) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// InsertBrief stores b under a fresh id and returns it.
func (s *Store) InsertBrief(b recruiting.Brief) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.newID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	s.data.Briefs[b.ID] = b
	if err := s.flush(); err != nil {
		delete(s.data.Briefs, b.ID)
		return "", fmt.Errorf("insert brief: %w", err)
	}
	return b.ID, nil
}

func (s *Store) Brief(id string) (recruiting.Brief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.data.Briefs[id]
	if !ok {
		return recruiting.Brief{}, fmt.Errorf("brief %q: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *Store) BriefsByOpening(openingID string) []recruiting.Brief {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []recruiting.Brief
	for _, b := range s.data.Briefs {
		if b.OpeningID == openingID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b recruiting.Brief) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// InsertAnalysis stores a under a fresh id and returns it.
func (s *Store) InsertAnalysis(a recruiting.Analysis) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.newID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.data.Analysis[a.ID] = a
	if err := s.flush(); err != nil {
		delete(s.data.Analysis, a.ID)
		return "", fmt.Errorf("insert analysis: %w", err)
	}
	return a.ID, nil
}

// AnalysesByOpening returns the analyses of one opening, best score first.
func (s *Store) AnalysesByOpening(openingID string) []recruiting.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []recruiting.Analysis
	for _, a := range s.data.Analysis {
		if a.OpeningID == openingID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b recruiting.Analysis) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// HasAnalysis reports whether an analysis exists for the content hash and opening.
func (s *Store) HasAnalysis(openingID, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.data.Analysis {
		if a.OpeningID == openingID && a.ContentHash == hash {
			return true
		}
	}
	return false
}

// InsertFile stores f under a fresh id and returns it.
func (s *Store) InsertFile(f recruiting.FileRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.newID()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	s.data.Files[f.ID] = f
	if err := s.flush(); err != nil {
		delete(s.data.Files, f.ID)
		return "", fmt.Errorf("insert file: %w", err)
	}
	return f.ID, nil
}

// FileByHash finds the file record of a content hash for one opening.
func (s *Store) FileByHash(openingID, hash string) (recruiting.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.data.Files {
		if f.OpeningID == openingID && f.ContentHash == hash {
			return f, nil
		}
	}
	return recruiting.FileRecord{}, fmt.Errorf("file %s for opening %q: %w", hash, openingID, ErrNotFound)
}

// Cleared counts the records removed by ClearOpening.
type Cleared struct {
	Briefs   int
	Analysis int
	Files    int
}

func (c Cleared) Total() int { return c.Briefs + c.Analysis + c.Files }

// ClearOpening deletes every brief, analysis and file record of an opening.
// The opening itself is kept.
func (s *Store) ClearOpening(openingID string) (Cleared, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	briefs := deleteWhere(s.data.Briefs, func(b recruiting.Brief) bool { return b.OpeningID == openingID })
	analysis := deleteWhere(s.data.Analysis, func(a recruiting.Analysis) bool { return a.OpeningID == openingID })
	files := deleteWhere(s.data.Files, func(f recruiting.FileRecord) bool { return f.OpeningID == openingID })

	cleared := Cleared{Briefs: len(briefs), Analysis: len(analysis), Files: len(files)}
	if cleared.Total() == 0 {
		return cleared, nil
	}

	if err := s.flush(); err != nil {
		maps.Copy(s.data.Briefs, briefs)
		maps.Copy(s.data.Analysis, analysis)
		maps.Copy(s.data.Files, files)
		return Cleared{}, fmt.Errorf("clear opening %q: %w", openingID, err)
	}
	return cleared, nil
}

func deleteWhere[V any](m map[string]V, match func(V) bool) map[string]V {
	removed := map[string]V{}
	for id, v := range m {
		if match(v) {
			removed[id] = v
			delete(m, id)
		}
	}
	return removed
}

// DeleteFiles removes only the file records of an opening.
func (s *Store) DeleteFiles(openingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := deleteWhere(s.data.Files, func(f recruiting.FileRecord) bool { return f.OpeningID == openingID })
	if len(files) == 0 {
		return 0, nil
	}
	if err := s.flush(); err != nil {
		maps.Copy(s.data.Files, files)
		return 0, fmt.Errorf("delete files of opening %q: %w", openingID, err)
	}
	return len(files), nil
}
