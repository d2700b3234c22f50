// Package source lists and downloads candidate documents from a folder tree.
package source

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
)

// FolderMimeType marks entries that are folders.
const FolderMimeType = "application/vnd.google-apps.folder"

var candidateExtensions = []string{".pdf", ".docx", ".txt"}

type Entry struct {
	ID       string
	Name     string
	MimeType string
}

func (e Entry) IsFolder() bool { return e.MimeType == FolderMimeType }

// Source is a read-only tree of folders and files addressed by opaque ids.
// The empty folder id is the root.
type Source interface {
	ListFolder(ctx context.Context, folderID string) ([]Entry, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

// FindFolder returns the direct sub-folder of parentID called name.
func FindFolder(ctx context.Context, src Source, parentID, name string) (Entry, error) {
	entries, err := src.ListFolder(ctx, parentID)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.IsFolder() && strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("folder %q not found", name)
}

// CandidateFiles keeps the files whose extension can be screened.
func CandidateFiles(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.IsFolder() {
			continue
		}
		if slices.Contains(candidateExtensions, strings.ToLower(path.Ext(e.Name))) {
			out = append(out, e)
		}
	}
	return out
}
