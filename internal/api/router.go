package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/timmy/imgsearch/internal/api/handler"
	"github.com/timmy/imgsearch/internal/api/middleware"
	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/docs"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/service"
)

// Service names, used as the log component and swagger instance.
const (
	ServiceEmbedding = docs.EmbeddingInstance
	ServiceIngesting = docs.IngestingInstance
	ServiceRetriever = docs.RetrieverInstance
)

// RouterConfig holds settings shared by every service router
type RouterConfig struct {
	Mode   string
	CORS   config.CORSConfig
	Logger *logger.Logger
}

// SetupEmbeddingRouter configures the embedding service routes
func SetupEmbeddingRouter(embeddingService *service.EmbeddingService, cfg *RouterConfig) *gin.Engine {
	r := newEngine(ServiceEmbedding, cfg)
	registerHealth(r, "Welcome to ViT-MSN Embedding API. Visit /docs to test.", "healthy")
	registerDocs(r, "/docs", ServiceEmbedding)

	embedHandler := handler.NewEmbedHandler(embeddingService)
	r.POST("/embed", embedHandler.Embed)

	return r
}

// SetupIngestingRouter configures the ingesting service routes
func SetupIngestingRouter(ingestService *service.IngestService, cfg *RouterConfig) *gin.Engine {
	r := newEngine(ServiceIngesting, cfg)
	registerHealth(r, "Welcome to the Image Ingestion API. Visit /ingesting/docs to test.", "healthy")
	registerDocs(r, "/ingesting/docs", ServiceIngesting)

	ingestHandler := handler.NewIngestHandler(ingestService)
	r.POST("/push_image", ingestHandler.PushImage)

	return r
}

// SetupRetrieverRouter configures the retriever service routes
func SetupRetrieverRouter(retrievalService *service.RetrievalService, cfg *RouterConfig) *gin.Engine {
	r := newEngine(ServiceRetriever, cfg)
	registerHealth(r, "Welcome to the Image Retriever API. Visit /retriever/docs to test.", "OK!")
	registerDocs(r, "/retriever/docs", ServiceRetriever)

	searchHandler := handler.NewSearchHandler(retrievalService)
	r.POST("/search_image", searchHandler.SearchImage)

	return r
}

func newEngine(serviceName string, cfg *RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(cfg.Logger, serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	return r
}

func registerHealth(r *gin.Engine, welcome, status string) {
	healthHandler := handler.NewHealthHandler(welcome, status)
	r.GET("/", healthHandler.Root)
	r.GET("/healthz", healthHandler.Health)
}

func registerDocs(r *gin.Engine, prefix, instance string) {
	r.GET(prefix+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(instance)))
}
