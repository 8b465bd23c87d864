// Package httpapi exposes the storage engine over REST: authenticated file,
// folder, share, and quota routes plus the public share-consumption route.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

// NewServer wires the routes onto a gin engine. secretKey signs the access
// tokens the authenticated routes require.
func NewServer(address string, logger logging.Logger, secretKey []byte,
	storage *services.StorageService, folders *services.FolderService,
	shares *services.ShareService, quota *services.QuotaService, guard *services.Guard) *Server {

	h := &handlers{storage: storage, folders: folders, shares: shares, quota: quota, guard: guard}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	// share consumption carries its own credential, the token
	engine.GET("/s/:token", h.accessShare)

	api := engine.Group("/api")
	api.Use(RequireAuth(secretKey))
	{
		api.POST("/files", h.uploadFile)
		api.GET("/files", h.listFiles)
		api.GET("/files/:id", h.getFile)
		api.GET("/files/:id/download", h.downloadFile)
		api.PATCH("/files/:id/move", h.moveFile)
		api.DELETE("/files/:id", h.deleteFile)
		api.POST("/files/:id/shares", h.createShare)

		api.GET("/quota", h.getQuota)

		api.POST("/folders", h.createFolder)
		api.GET("/folders", h.listFolders)
		api.GET("/folders/:id/breadcrumb", h.folderBreadcrumb)
		api.DELETE("/folders/:id", h.deleteFolder)
	}

	return &Server{
		address: address,
		engine:  engine,
		logger:  logger.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
