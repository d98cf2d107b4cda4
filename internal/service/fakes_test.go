package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/imaging"
	"github.com/timmy/imgsearch/internal/storage"
)

// memStorage is an in-memory ObjectStorage.
type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploads   int
	uploadErr error
	signErr   error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) EnsureBucket(context.Context) error { return nil }

func (m *memStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	m.uploads++
	return nil
}

func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) SignedURL(_ context.Context, key string, ttl time.Duration, disposition string) (string, error) {
	if m.signErr != nil {
		return "", m.signErr
	}
	q := url.Values{}
	q.Set("expires", ttl.String())
	if disposition != "" {
		q.Set("disposition", disposition)
	}
	return "https://signed.example/" + key + "?" + q.Encode(), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) has(key string) bool {
	ok, _ := m.Exists(context.Background(), key)
	return ok
}

// memIndex is an in-memory VectorIndex using cosine similarity.
type memIndex struct {
	mu        sync.Mutex
	entries   map[string]domain.IndexEntry
	upsertErr error
	queryErr  error
	fetchErr  error
	queries   int
}

func newMemIndex() *memIndex {
	return &memIndex{entries: map[string]domain.IndexEntry{}}
}

func (m *memIndex) EnsureIndex(context.Context) error { return nil }

func (m *memIndex) Upsert(_ context.Context, entries ...domain.IndexEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *memIndex) Query(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	matches := make([]domain.Match, 0, len(m.entries))
	for id, e := range m.entries {
		matches = append(matches, domain.Match{ID: id, Score: cosine(vector, e.Vector)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *memIndex) Fetch(_ context.Context, ids []string) (map[string]domain.IndexMetadata, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]domain.IndexMetadata{}
	for _, id := range ids {
		if e, ok := m.entries[id]; ok && e.Metadata.StoragePath != "" {
			out[id] = e.Metadata
		}
	}
	return out, nil
}

func (m *memIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memIndex) Close() error { return nil }

func (m *memIndex) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func (m *memIndex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// failingVectorizer always errors.
// emptyVectorizer returns a zero-length vector without error.
type emptyVectorizer struct{}

func (emptyVectorizer) Vectorize(context.Context, []byte) ([]float32, error) {
	return []float32{}, nil
}

type failingVectorizer struct{}

func (failingVectorizer) Vectorize(context.Context, []byte) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

const testDim = 32

func testEncoder(t *testing.T) *embedding.PixelEncoder {
	t.Helper()
	enc, err := embedding.NewPixelEncoder(testDim, imaging.PreprocessConfig{
		Size: 16,
		Mean: [3]float32{0.485, 0.456, 0.406},
		Std:  [3]float32{0.229, 0.224, 0.225},
	})
	require.NoError(t, err)
	return enc
}

// pattern draws an image whose content depends on seed.
func pattern(seed int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*seed*7 + y*3) % 256),
				G: uint8((y*seed*11 + x*5) % 256),
				B: uint8((x*y + seed*40) % 256),
				A: 255,
			})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}
