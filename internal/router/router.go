package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "solarops/docs" // registers swagger docs
	"solarops/internal/handler"
	"solarops/internal/middleware"
)

// Options holds router settings that come from configuration.
type Options struct {
	CORSOrigins []string
	// FilesDir, when set, serves locally stored documents under /files.
	FilesDir string
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	ingestH *handler.IngestHandler,
	recordH *handler.RecordHandler,
	healthH *handler.HealthHandler,
	opts Options,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.GET("/", healthH.Root)
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.FilesDir != "" {
		r.Static("/files", opts.FilesDir)
	}

	v1 := r.Group("/api/v1")

	v1.POST("/uploads", ingestH.Upload)
	v1.GET("/stats", recordH.Stats)

	records := v1.Group("/records")
	records.POST("", ingestH.Process)
	records.GET("", recordH.List)
	records.GET("/export", recordH.Export)
	records.GET("/:filename", recordH.Get)
	records.GET("/:filename/audit", recordH.Audit)
	records.GET("/:filename/document", recordH.Document)
	records.POST("/:filename/override", recordH.Override)

	return r
}
