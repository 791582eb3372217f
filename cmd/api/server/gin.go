package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginrouter "library-service/internal/adapter/gin/router"
	grpcmiddleware "library-service/internal/adapter/grpc/middleware"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handlers ginrouter.Handlers,
	rateLimiter *grpcmiddleware.RateLimiter,
	allowedOrigins []string,
	ginAddr string,
	debug bool,
	l *zap.Logger,
) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handlers, rateLimiter, allowedOrigins, l)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
