package datasource

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const directorySourceName = "directory"

// DirectorySource serves saved pages from disk, laid out as
// <root>/entry/<raceID>.html and <root>/history/<horseID>.html.
type DirectorySource struct {
	root string
}

// NewDirectorySource creates a source rooted at dir.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{root: dir}
}

// Name returns the name of the data source
func (d *DirectorySource) Name() string {
	return directorySourceName
}

// FetchEntryPage reads a saved entry page.
func (d *DirectorySource) FetchEntryPage(ctx context.Context, raceID string) ([]byte, error) {
	return d.read(ctx, KindEntry, raceID)
}

// FetchHistoryPage reads a saved history page.
func (d *DirectorySource) FetchHistoryPage(ctx context.Context, horseID string) ([]byte, error) {
	return d.read(ctx, KindHistory, horseID)
}

func (d *DirectorySource) read(ctx context.Context, kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, NewDataSourceError(directorySourceName, ErrCodeInvalidData, "invalid page id", nil)
	}

	raw, err := os.ReadFile(filepath.Join(d.root, kind, id+".html"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewDataSourceError(directorySourceName, ErrCodeNotFound, kind+" page not saved", err)
		}
		return nil, NewDataSourceError(directorySourceName, ErrCodeNetworkError, "failed to read page", err)
	}

	page, err := DecodePage(raw, "")
	if err != nil {
		return nil, NewDataSourceError(directorySourceName, ErrCodeInvalidData, "failed to decode page", err)
	}
	return page, nil
}
