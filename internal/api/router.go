package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/your-org/casetrack/internal/api/handlers"
	"github.com/your-org/casetrack/internal/api/ws"
	"github.com/your-org/casetrack/internal/auth"
	"github.com/your-org/casetrack/internal/observability"
	"github.com/your-org/casetrack/internal/queue"
	"github.com/your-org/casetrack/internal/storage"
	"github.com/your-org/casetrack/internal/workflow"
)

type RouterConfig struct {
	APIKey string
	Engine *workflow.Engine
	// MinIO and Producer are nil when photo storage or NATS is disabled.
	MinIO    *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(LoggingMiddleware())
	r.Use(cors.New(corsConfig()))

	// Typed nils must not reach the handlers as non-nil interfaces.
	var (
		photos     handlers.PhotoStore
		minioCheck handlers.ContextPinger
		natsCheck  handlers.NATSPinger
	)
	if cfg.MinIO != nil {
		photos = cfg.MinIO
		minioCheck = cfg.MinIO
	}
	if cfg.Producer != nil {
		natsCheck = cfg.Producer
	}
	systemH := handlers.NewSystemHandler(cfg.Engine, minioCheck, natsCheck)

	// System endpoints (no auth)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	v1.Use(auth.SubmitterMiddleware())

	// WebSocket
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Registered cases
	caseH := handlers.NewCaseHandler(cfg.Engine)
	v1.POST("/cases", caseH.Create)
	v1.GET("/cases", caseH.List)
	v1.GET("/cases/training", caseH.Training)
	v1.GET("/cases/:id", caseH.Get)
	v1.POST("/cases/:id/alert", caseH.RegenerateAlert)
	v1.POST("/cases/:id/explain", caseH.Explain)
	v1.POST("/cases/:id/leads", caseH.Leads)
	v1.POST("/cases/:id/witness", caseH.Witness)
	v1.GET("/dashboard", caseH.Dashboard)

	// Public submissions
	subH := handlers.NewSubmissionHandler(cfg.Engine)
	v1.POST("/submissions", subH.Create)
	v1.GET("/submissions", subH.List)
	v1.GET("/submissions/:id", subH.Get)

	// Matches
	matchH := handlers.NewMatchHandler(cfg.Engine)
	v1.POST("/matches", matchH.Confirm)

	// Photos
	photoH := handlers.NewPhotoHandler(cfg.Engine, photos)
	v1.POST("/cases/:id/photos", photoH.Upload(storage.PhotoOwnerCase))
	v1.GET("/cases/:id/photos", photoH.List(storage.PhotoOwnerCase))
	v1.GET("/cases/:id/photos/:name", photoH.Download(storage.PhotoOwnerCase))
	v1.DELETE("/cases/:id/photos/:name", photoH.Delete(storage.PhotoOwnerCase))
	v1.POST("/submissions/:id/photos", photoH.Upload(storage.PhotoOwnerSubmission))
	v1.GET("/submissions/:id/photos", photoH.List(storage.PhotoOwnerSubmission))
	v1.GET("/submissions/:id/photos/:name", photoH.Download(storage.PhotoOwnerSubmission))
	v1.DELETE("/submissions/:id/photos/:name", photoH.Delete(storage.PhotoOwnerSubmission))

	return r
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, auth.APIKeyHeader, auth.SubmitterHeader)
	return cfg
}
