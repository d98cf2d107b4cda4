package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/source/localdir"
)

func TestIngestFromSource(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"a.png", "b.jpg", "sub/c.png"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		data := pngBytes(t, pattern(i+1))
		if filepath.Ext(name) == ".jpg" {
			data = jpegBytes(t, pattern(i+1))
		}
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.png"), []byte("nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("skip"), 0644))

	f := newIngestFixture(t, false)
	stats, err := f.svc.IngestFromSource(context.Background(), localdir.NewAdapter(root), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalItems)
	assert.Equal(t, int64(4), stats.ProcessedItems)
	assert.Equal(t, int64(1), stats.FailedItems)
	assert.Equal(t, int64(3), stats.Succeeded())
	assert.Equal(t, 3, f.index.size())
}

func TestIngestFromSourceLimit(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		path := filepath.Join(root, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(path, pngBytes(t, pattern(i+1)), 0644))
	}

	f := newIngestFixture(t, false)
	stats, err := f.svc.IngestFromSource(context.Background(), localdir.NewAdapter(root), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalItems)
	assert.Equal(t, 3, f.index.size())
}
