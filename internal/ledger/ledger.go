// Package ledger remembers which document contents were already screened for
// an opening so reruns skip them without calling the model again.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Entry is one processed (content, opening) pair.
type Entry struct {
	ContentHash  string
	OpeningID    string
	OpeningTitle string
	DocumentID   string
}

type Ledger interface {
	Seen(ctx context.Context, openingID, hash string) (bool, error)
	Record(ctx context.Context, entry Entry) error
	// Forget drops every entry of an opening and returns how many were removed.
	Forget(ctx context.Context, openingID string) (int, error)
}

// ContentHash is the hex SHA-256 digest of the raw document bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AnalysisIndex answers whether an analysis for a content hash is already stored.
type AnalysisIndex interface {
	HasAnalysis(openingID, hash string) bool
}

// WithAnalyses makes l report a document as seen when the index already holds
// its analysis. Persisting writes the analysis before the ledger entry, so a
// failed Record must not let the next run score the document again.
func WithAnalyses(l Ledger, index AnalysisIndex) Ledger {
	return &analysisGuard{Ledger: l, index: index}
}

type analysisGuard struct {
	Ledger
	index AnalysisIndex
}

func (g *analysisGuard) Seen(ctx context.Context, openingID, hash string) (bool, error) {
	if g.index.HasAnalysis(openingID, hash) {
		return true, nil
	}
	return g.Ledger.Seen(ctx, openingID, hash)
}
