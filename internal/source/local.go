package source

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
)

// Local serves a directory tree. Ids are slash separated paths relative to the root.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}
	return &Local{root: root}, nil
}

var errEscapesRoot = errors.New("path escapes source root")

func (l *Local) resolve(id string) (string, error) {
	if id == "" {
		return l.root, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(id)) {
		return "", fmt.Errorf("%q: %w", id, errEscapesRoot)
	}
	return filepath.Join(l.root, filepath.FromSlash(id)), nil
}

func (l *Local) ListFolder(ctx context.Context, folderID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := l.resolve(folderID)
	if err != nil {
		return nil, err
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", folderID, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Name()[0] == '.' {
			continue
		}
		entry := Entry{ID: path.Join(folderID, item.Name()), Name: item.Name()}
		if item.IsDir() {
			entry.MimeType = FolderMimeType
		} else {
			entry.MimeType = cmp.Or(mime.TypeByExtension(path.Ext(item.Name())), "application/octet-stream")
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Name, b.Name) })

	return entries, nil
}

func (l *Local) Download(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := l.resolve(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", id, err)
	}
	return data, nil
}

var errNotFolderName = errors.New("folder name must be a single path element")

// EnsureFolder returns the root level folder called name, creating it when it
// does not exist yet. Matching is case insensitive like FindFolder.
func (l *Local) EnsureFolder(ctx context.Context, name string) (Entry, bool, error) {
	if name == "" || name == "." || filepath.Base(name) != name || !filepath.IsLocal(name) {
		return Entry{}, false, fmt.Errorf("%q: %w", name, errNotFolderName)
	}

	if entry, err := FindFolder(ctx, l, "", name); err == nil {
		return entry, false, nil
	} else if ctx.Err() != nil {
		return Entry{}, false, ctx.Err()
	}

	if err := os.Mkdir(filepath.Join(l.root, name), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return Entry{}, false, fmt.Errorf("create folder %q: %w", name, err)
	}
	return Entry{ID: name, Name: name, MimeType: FolderMimeType}, true, nil
}
