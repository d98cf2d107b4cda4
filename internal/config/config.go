package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the shared configuration for the embedding, ingesting and
// retriever services and the imgctl tool. Each binary reads the sections it
// needs.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

// Addr returns the listen address, falling back to defaultPort when no port
// is configured.
func (s *ServerConfig) Addr(defaultPort int) string {
	port := s.Port
	if port <= 0 {
		port = defaultPort
	}
	return fmt.Sprintf(":%d", port)
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// StorageConfig configures the S3-compatible bucket holding image blobs.
type StorageConfig struct {
	Type         string        `mapstructure:"type"` // r2, s3, s3compatible
	Endpoint     string        `mapstructure:"endpoint"`
	Region       string        `mapstructure:"region"`
	Bucket       string        `mapstructure:"bucket"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
}

// IndexConfig configures the vector index.
type IndexConfig struct {
	Provider  string         `mapstructure:"provider"` // qdrant, weaviate
	Name      string         `mapstructure:"name"`
	Dimension int            `mapstructure:"dimension"`
	TopK      int            `mapstructure:"top_k"`
	Qdrant    QdrantConfig   `mapstructure:"qdrant"`
	Weaviate  WeaviateConfig `mapstructure:"weaviate"`
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

type WeaviateConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// CatalogConfig configures the optional image record catalog.
type CatalogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // sqlite, postgres
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
}

// DSN returns the connection string for the configured driver.
func (c *CatalogConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

type IngestConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from configPath (or ./configs/config.yaml,
// ./config.yaml), then applies environment overrides.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment-specific endpoints
	v.BindEnv("embedding.service_url", "EMBEDDING_SERVICE_URL")
	v.BindEnv("embedding.inference_url", "INFERENCE_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("storage.region", "AWS_REGION")
	v.BindEnv("index.qdrant.host", "QDRANT_HOST")
	v.BindEnv("index.qdrant.port", "QDRANT_PORT")
	v.BindEnv("index.qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("index.weaviate.url", "WEAVIATE_URL")
	v.BindEnv("index.weaviate.api_key", "WEAVIATE_API_KEY")
	v.BindEnv("catalog.url", "DATABASE_URL")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Embedding.ResolveEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 0)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("embedding.backend", EmbeddingBackendRemote)
	v.SetDefault("embedding.service_url", "http://localhost:5000/embed")
	v.SetDefault("embedding.model", "facebook/vit-msn-base")
	v.SetDefault("embedding.inference_url", "http://localhost:8000")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.image_size", 224)
	v.SetDefault("embedding.image_mean", []float64{0.485, 0.456, 0.406})
	v.SetDefault("embedding.image_std", []float64{0.229, 0.224, 0.225})
	v.SetDefault("embedding.timeout", 60*time.Second)

	v.SetDefault("storage.type", "")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "image-retrieval-bucket")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.signed_url_ttl", time.Hour)

	v.SetDefault("index.provider", IndexProviderQdrant)
	v.SetDefault("index.name", "mlops1-project")
	v.SetDefault("index.dimension", 768)
	v.SetDefault("index.top_k", 5)
	v.SetDefault("index.qdrant.host", "localhost")
	v.SetDefault("index.qdrant.port", 6334)
	v.SetDefault("index.qdrant.use_tls", false)
	v.SetDefault("index.weaviate.url", "http://localhost:8080")

	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.path", "./data/images.db")

	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.batch_size", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Index providers.
const (
	IndexProviderQdrant   = "qdrant"
	IndexProviderWeaviate = "weaviate"
)

// Validate checks cross-field constraints after loading.
func (c *Config) Validate() error {
	if err := c.Embedding.Validate(); err != nil {
		return err
	}
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("index: dimension must be positive")
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index: top_k must be positive")
	}
	if c.Index.Dimension != c.Embedding.Dimensions {
		return fmt.Errorf("index dimension %d does not match embedding dimensions %d",
			c.Index.Dimension, c.Embedding.Dimensions)
	}
	switch c.Index.Provider {
	case IndexProviderQdrant, IndexProviderWeaviate:
	default:
		return fmt.Errorf("index: unknown provider %q", c.Index.Provider)
	}
	if c.Storage.SignedURLTTL <= 0 {
		return fmt.Errorf("storage: signed_url_ttl must be positive")
	}
	if c.Catalog.Enabled {
		switch c.Catalog.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("catalog: unknown driver %q", c.Catalog.Driver)
		}
	}
	return nil
}
