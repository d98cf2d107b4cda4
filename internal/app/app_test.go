package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/logger"
)

func TestBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  backend: pixel
  dimensions: 32
index:
  dimension: 32
logging:
  level: debug
  format: text
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_ENV", "local")

	cfg, log, err := Bootstrap("imgsearch-test")
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Equal(t, config.EmbeddingBackendPixel, cfg.Embedding.Backend)
	assert.Equal(t, 32, cfg.Index.Dimension)
	assert.Same(t, log, logger.GetDefault())
}

func TestBootstrapInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  top_k: 0\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	_, _, err := Bootstrap("imgsearch-test")
	require.Error(t, err)
}

func TestNewCatalog(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		catalog, err := NewCatalog(&config.CatalogConfig{Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, catalog)
	})

	t.Run("sqlite", func(t *testing.T) {
		catalog, err := NewCatalog(&config.CatalogConfig{
			Enabled: true,
			Driver:  "sqlite",
			Path:    filepath.Join(t.TempDir(), "images.db"),
		})
		require.NoError(t, err)
		require.NotNil(t, catalog)

		n, err := catalog.CountByStatus(context.Background(), domain.ImageRecordStatusUploaded)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestServeReportsListenError(t *testing.T) {
	log := logger.New(&logger.Config{Level: "error", Format: "json"})
	srv := &http.Server{Addr: "256.0.0.1:-1", ReadHeaderTimeout: time.Second}

	err := Serve(srv, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server")
}
