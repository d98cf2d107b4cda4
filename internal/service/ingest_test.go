package service

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/repository"
)

type ingestFixture struct {
	svc     *IngestService
	store   *memStorage
	index   *memIndex
	catalog *repository.ImageRecordRepository
}

func newIngestFixture(t *testing.T, withCatalog bool) *ingestFixture {
	t.Helper()
	f := &ingestFixture{store: newMemStorage(), index: newMemIndex()}
	if withCatalog {
		db, err := repository.InitDB(&config.CatalogConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "images.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		f.catalog = repository.NewImageRecordRepository(db)
	}
	f.svc = NewIngestService(embedding.NewLocal(testEncoder(t)), f.store, f.index, f.catalog, nil, &IngestConfig{
		SignedURLTTL: time.Hour,
		Workers:      2,
		BatchSize:    2,
	})
	return f
}

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, msg, domain.PublicMessage(err, ""))
}

func TestPushImageAcceptedFormats(t *testing.T) {
	tests := []struct {
		filename    string
		data        func(t *testing.T) []byte
		wantExt     string
		contentType string
	}{
		{"cat.jpg", func(t *testing.T) []byte { return jpegBytes(t, pattern(1)) }, "jpg", "image/jpeg"},
		{"CAT.JPEG", func(t *testing.T) []byte { return jpegBytes(t, pattern(2)) }, "jpeg", "image/jpeg"},
		{"dog.png", func(t *testing.T) []byte { return pngBytes(t, pattern(3)) }, "png", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			f := newIngestFixture(t, false)
			res, err := f.svc.PushImage(context.Background(), tt.filename, "", tt.data(t))
			require.NoError(t, err)

			assert.Equal(t, IngestSuccessMessage, res.Message)
			assert.Equal(t, "images/"+res.FileID+"."+tt.wantExt, res.StoragePath)
			assert.True(t, f.store.has(res.StoragePath))
			assert.Equal(t, tt.contentType, f.store.types[res.StoragePath])

			u, err := url.Parse(res.SignedURL)
			require.NoError(t, err)
			assert.Equal(t, "attachment; filename="+tt.filename, u.Query().Get("disposition"))
			assert.Equal(t, "1h0m0s", u.Query().Get("expires"))

			entry, ok := f.index.entries[res.FileID]
			require.True(t, ok)
			assert.Len(t, entry.Vector, testDim)
			assert.Equal(t, domain.IndexMetadata{StoragePath: res.StoragePath, Filename: tt.filename}, entry.Metadata)
		})
	}
}

func TestPushImageMintsFreshIDs(t *testing.T) {
	f := newIngestFixture(t, false)
	data := pngBytes(t, pattern(4))

	a, err := f.svc.PushImage(context.Background(), "same.png", "image/png", data)
	require.NoError(t, err)
	b, err := f.svc.PushImage(context.Background(), "same.png", "image/png", data)
	require.NoError(t, err)

	assert.NotEqual(t, a.FileID, b.FileID)
	assert.Equal(t, 2, f.index.size())
}

func TestPushImageRejectsExtensions(t *testing.T) {
	for _, name := range []string{"anim.gif", "photo.webp", "jpg", "noext", "archive.png.zip", ""} {
		t.Run(name, func(t *testing.T) {
			f := newIngestFixture(t, false)
			_, err := f.svc.PushImage(context.Background(), name, "", pngBytes(t, pattern(1)))
			assertKind(t, err, domain.ErrInvalidInput, domain.MsgUnsupportedFileType)
			assert.Empty(t, f.store.objects)
			assert.Zero(t, f.index.size())
		})
	}
}

func TestPushImageRejectsUndecodable(t *testing.T) {
	good := pngBytes(t, pattern(1))
	for name, data := range map[string][]byte{
		"text":      []byte("hello, not an image"),
		"empty":     {},
		"truncated": good[:len(good)/2],
	} {
		t.Run(name, func(t *testing.T) {
			f := newIngestFixture(t, false)
			_, err := f.svc.PushImage(context.Background(), "x.png", "image/png", data)
			assertKind(t, err, domain.ErrInvalidInput, domain.MsgNotAnImage)
			assert.Empty(t, f.store.objects)
			assert.Zero(t, f.index.size())
		})
	}
}

func TestPushImageDependencyFailures(t *testing.T) {
	ctx := context.Background()
	data := pngBytes(t, pattern(5))

	t.Run("vectorizer", func(t *testing.T) {
		f := newIngestFixture(t, false)
		f.svc.vectorizer = failingVectorizer{}
		_, err := f.svc.PushImage(ctx, "a.png", "", data)
		require.ErrorIs(t, err, domain.ErrDependencyFailure)
		assert.Empty(t, f.store.objects, "nothing is stored before the vector exists")
	})

	t.Run("upload", func(t *testing.T) {
		f := newIngestFixture(t, false)
		f.store.uploadErr = errors.New("bucket gone")
		_, err := f.svc.PushImage(ctx, "a.png", "", data)
		require.ErrorIs(t, err, domain.ErrDependencyFailure)
		assert.Zero(t, f.index.size())
	})

	t.Run("index keeps blob", func(t *testing.T) {
		f := newIngestFixture(t, false)
		f.index.upsertErr = errors.New("index unavailable")
		_, err := f.svc.PushImage(ctx, "a.png", "", data)
		require.ErrorIs(t, err, domain.ErrDependencyFailure)
		assert.Len(t, f.store.objects, 1)
	})

	t.Run("signed url", func(t *testing.T) {
		f := newIngestFixture(t, false)
		f.store.signErr = errors.New("no credentials")
		_, err := f.svc.PushImage(ctx, "a.png", "", data)
		require.ErrorIs(t, err, domain.ErrDependencyFailure)
		assert.Zero(t, f.index.size())
	})
}

func TestPushImageCatalogAndReconcile(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, true)

	ok, err := f.svc.PushImage(ctx, "ok.png", "", pngBytes(t, pattern(6)))
	require.NoError(t, err)
	rec, err := f.catalog.GetByID(ctx, ok.FileID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImageRecordStatusIndexed, rec.Status)
	assert.Equal(t, "ok.png", rec.Filename)

	f.index.upsertErr = errors.New("index unavailable")
	_, err = f.svc.PushImage(ctx, "stuck.jpg", "", jpegBytes(t, pattern(7)))
	require.Error(t, err)

	pending, err := f.catalog.ListByStatus(ctx, domain.ImageRecordStatusUploaded, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	stuck := pending[0]
	assert.True(t, strings.HasSuffix(stuck.StoragePath, ".jpg"))

	f.index.upsertErr = nil
	stats, err := f.svc.Reconcile(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.Equal(t, int64(1), stats.Succeeded())

	_, indexed := f.index.entries[stuck.ID]
	assert.True(t, indexed)
	rec, err = f.catalog.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImageRecordStatusIndexed, rec.Status)
}

func TestReconcileWithoutCatalog(t *testing.T) {
	f := newIngestFixture(t, false)
	_, err := f.svc.Reconcile(context.Background(), 0)
	assert.ErrorIs(t, err, ErrCatalogDisabled)
}

func TestIngestServiceUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf, ServiceName: "ingest-test"})
	svc := NewIngestService(embedding.NewLocal(testEncoder(t)), newMemStorage(), newMemIndex(), nil, log, &IngestConfig{})

	_, err := svc.PushImage(context.Background(), "a.png", "image/png", pngBytes(t, pattern(3)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Image ingested")
	assert.Contains(t, buf.String(), "ingest-test")
}
