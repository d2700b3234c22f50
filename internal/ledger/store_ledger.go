package ledger

import (
	"context"
	"errors"

	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/store"
)

// StoreLedger keeps entries in the files collection of the result store.
type StoreLedger struct {
	store *store.Store
}

func NewStoreLedger(s *store.Store) *StoreLedger {
	return &StoreLedger{store: s}
}

// Seen also reports true when an analysis with the same hash exists, which
// covers documents whose file record was lost after the analysis was written.
func (l *StoreLedger) Seen(_ context.Context, openingID, hash string) (bool, error) {
	_, err := l.store.FileByHash(openingID, hash)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}
	return l.store.HasAnalysis(openingID, hash), nil
}

func (l *StoreLedger) Record(_ context.Context, entry Entry) error {
	_, err := l.store.InsertFile(recruiting.FileRecord{
		FileID:       entry.DocumentID,
		OpeningID:    entry.OpeningID,
		OpeningTitle: entry.OpeningTitle,
		ContentHash:  entry.ContentHash,
	})
	return err
}

func (l *StoreLedger) Forget(_ context.Context, openingID string) (int, error) {
	return l.store.DeleteFiles(openingID)
}
