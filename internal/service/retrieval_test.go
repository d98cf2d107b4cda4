package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
)

func newRetrieval(t *testing.T, f *ingestFixture, topK int) *RetrievalService {
	t.Helper()
	return NewRetrievalService(embedding.NewLocal(testEncoder(t)), f.store, f.index, &RetrievalConfig{
		TopK:         topK,
		SignedURLTTL: time.Hour,
	})
}

func TestSearchImageEmptyIndex(t *testing.T) {
	f := newIngestFixture(t, false)
	urls, err := newRetrieval(t, f, 5).SearchImage(context.Background(), pngBytes(t, pattern(1)))
	require.NoError(t, err)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestSearchImageRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, false)

	var target *PushResult
	for i := 1; i <= 4; i++ {
		res, err := f.svc.PushImage(ctx, fmt.Sprintf("img%d.png", i), "", pngBytes(t, pattern(i)))
		require.NoError(t, err)
		if i == 3 {
			target = res
		}
	}

	urls, err := newRetrieval(t, f, 5).SearchImage(ctx, pngBytes(t, pattern(3)))
	require.NoError(t, err)
	require.Len(t, urls, 4, "fewer stored images than k returns all of them")
	assert.True(t, strings.HasPrefix(urls[0], "https://signed.example/"+target.StoragePath+"?"))
	assert.NotContains(t, urls[0], "disposition")
}

func TestSearchImageLimitsToTopK(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, false)
	for i := 1; i <= 7; i++ {
		_, err := f.svc.PushImage(ctx, fmt.Sprintf("img%d.jpg", i), "", jpegBytes(t, pattern(i)))
		require.NoError(t, err)
	}

	urls, err := newRetrieval(t, f, 5).SearchImage(ctx, jpegBytes(t, pattern(2)))
	require.NoError(t, err)
	assert.Len(t, urls, 5)
}

func TestSearchImageSkipsMissing(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, false)

	var results []*PushResult
	for i := 1; i <= 3; i++ {
		res, err := f.svc.PushImage(ctx, fmt.Sprintf("img%d.png", i), "", pngBytes(t, pattern(i)))
		require.NoError(t, err)
		results = append(results, res)
	}

	// blob deleted behind the index's back
	require.NoError(t, f.store.Delete(ctx, results[0].StoragePath))
	// entry without metadata
	e := f.index.entries[results[1].FileID]
	e.Metadata = domain.IndexMetadata{}
	f.index.entries[results[1].FileID] = e

	urls, err := newRetrieval(t, f, 5).SearchImage(ctx, pngBytes(t, pattern(1)))
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], results[2].StoragePath)
}

func TestSearchImageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not an image", func(t *testing.T) {
		f := newIngestFixture(t, false)
		_, err := newRetrieval(t, f, 5).SearchImage(ctx, []byte("GIF89a but not really"))
		assertKind(t, err, domain.ErrInvalidInput, domain.MsgNotAnImage)
	})

	t.Run("vectorizer", func(t *testing.T) {
		f := newIngestFixture(t, false)
		svc := NewRetrievalService(failingVectorizer{}, f.store, f.index, &RetrievalConfig{})
		_, err := svc.SearchImage(ctx, pngBytes(t, pattern(1)))
		assert.ErrorIs(t, err, domain.ErrDependencyFailure)
	})

	t.Run("empty vector", func(t *testing.T) {
		f := newIngestFixture(t, false)
		svc := NewRetrievalService(emptyVectorizer{}, f.store, f.index, &RetrievalConfig{})
		_, err := svc.SearchImage(ctx, pngBytes(t, pattern(1)))
		assertKind(t, err, domain.ErrInvalidInput, domain.MsgEmptyVector)
		assert.Zero(t, f.index.queryCount())
	})

	t.Run("query", func(t *testing.T) {
		f := newIngestFixture(t, false)
		f.index.queryErr = errors.New("timeout")
		_, err := newRetrieval(t, f, 5).SearchImage(ctx, pngBytes(t, pattern(1)))
		assert.ErrorIs(t, err, domain.ErrDependencyFailure)
	})

	t.Run("fetch", func(t *testing.T) {
		f := newIngestFixture(t, false)
		_, err := f.svc.PushImage(ctx, "a.png", "", pngBytes(t, pattern(1)))
		require.NoError(t, err)
		f.index.fetchErr = errors.New("timeout")
		_, err = newRetrieval(t, f, 5).SearchImage(ctx, pngBytes(t, pattern(1)))
		assert.ErrorIs(t, err, domain.ErrDependencyFailure)
	})
}
