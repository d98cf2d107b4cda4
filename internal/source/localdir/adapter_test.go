package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestAdapterWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.png"), "x")
	writeFile(t, filepath.Join(root, "a.JPG"), "x")
	writeFile(t, filepath.Join(root, "nested", "c.jpeg"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "anim.gif"), "x")

	a := NewAdapter(root)
	total, err := a.GetTotalCount()
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	ctx := context.Background()
	first, cursor, err := a.FetchBatch(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a.JPG", first[0].SourceID)
	assert.Equal(t, "b.png", first[1].SourceID)
	assert.Equal(t, "2", cursor)

	rest, cursor, err := a.FetchBatch(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "nested/c.jpeg", rest[0].SourceID)
	assert.Equal(t, "c.jpeg", rest[0].Filename)
	assert.Empty(t, cursor)

	_, _, err = a.FetchBatch(ctx, "nope", 2)
	assert.Error(t, err)
}

func TestAdapterManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "imgs", "1.png"), "x")
	writeFile(t, filepath.Join(root, "imgs", "2.png"), "x")
	writeFile(t, filepath.Join(root, ManifestFileName), `{"id":"one","path":"imgs/1.png","filename":"cat.png"}
not json
{"id":"missing","path":"imgs/404.png"}

{"path":"imgs/2.png"}
`)

	items, next, err := NewAdapter(root).FetchBatch(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, items, 2)
	assert.Equal(t, "imgs/2.png", items[0].SourceID)
	assert.Equal(t, "2.png", items[0].Filename)
	assert.Equal(t, "one", items[1].SourceID)
	assert.Equal(t, "cat.png", items[1].Filename)
}
