// Package localdir reads images for bulk ingestion from a local directory.
package localdir

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/imgsearch/internal/imaging"
	"github.com/timmy/imgsearch/internal/source"
)

// ManifestFileName is an optional JSONL manifest. When present only the
// files it lists are ingested, under the filenames it gives.
const ManifestFileName = "manifest.jsonl"

// ManifestItem represents a line in manifest.jsonl.
type ManifestItem struct {
	ID       string `json:"id"`
	Path     string `json:"path"`     // relative to the directory
	Filename string `json:"filename"` // reported filename; defaults to the base of Path
}

// Adapter implements source.Source for a local directory.
type Adapter struct {
	root   string
	items  []source.ImageItem
	loaded bool
}

// NewAdapter creates a new directory adapter.
// Parameters:
//   - root: directory to read images from.
//
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(root string) *Adapter {
	return &Adapter{root: root}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "dir:" + a.root
}

// FetchBatch fetches a batch of items from the directory.
// Parameters:
//   - ctx: context for cancellation and deadlines (unused for local reads).
//   - cursor: pagination cursor as an index string.
//   - limit: maximum number of items to fetch.
//
// Returns:
//   - []source.ImageItem: batch of items.
//   - string: next cursor or empty if no more items.
//   - error: non-nil if loading or parsing fails.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	if err := a.ensureLoaded(); err != nil {
		return nil, "", err
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}

	if startIndex >= len(a.items) {
		return []source.ImageItem{}, "", nil
	}

	endIndex := startIndex + limit
	if endIndex > len(a.items) {
		endIndex = len(a.items)
	}

	nextCursor := ""
	if endIndex < len(a.items) {
		nextCursor = strconv.Itoa(endIndex)
	}

	return a.items[startIndex:endIndex], nextCursor, nil
}

// GetTotalCount returns the number of items in the directory.
func (a *Adapter) GetTotalCount() (int, error) {
	if err := a.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(a.items), nil
}

func (a *Adapter) ensureLoaded() error {
	if a.loaded {
		return nil
	}

	var err error
	manifestPath := filepath.Join(a.root, ManifestFileName)
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		err = a.loadManifest(manifestPath)
	} else {
		err = a.walk()
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", a.root, err)
	}

	sort.Slice(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})
	a.loaded = true
	return nil
}

// walk collects every file whose extension is accepted for ingestion.
func (a *Adapter) walk() error {
	a.items = []source.ImageItem{}
	return filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := imaging.ValidateExtension(d.Name()); err != nil {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		a.items = append(a.items, source.ImageItem{
			SourceID:  filepath.ToSlash(rel),
			Filename:  d.Name(),
			LocalPath: path,
		})
		return nil
	})
}

func (a *Adapter) loadManifest(manifestPath string) error {
	file, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []source.ImageItem{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			// Skip malformed lines
			continue
		}
		if item.Path == "" {
			continue
		}

		localPath := filepath.Join(a.root, filepath.FromSlash(item.Path))
		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			continue
		}

		id := item.ID
		if id == "" {
			id = item.Path
		}
		filename := item.Filename
		if filename == "" {
			filename = filepath.Base(localPath)
		}

		a.items = append(a.items, source.ImageItem{
			SourceID:  id,
			Filename:  filename,
			LocalPath: localPath,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}
	return nil
}
