package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"library-service/internal/adapter/grpc/middleware"
	"library-service/pkg/logger"
)

// ServiceName is the name the health service reports the library API under.
const ServiceName = "library.v1.LibraryService"

// SetupGRPC creates the gRPC server carrying the health and reflection services.
func SetupGRPC(l *zap.Logger, rateLimiter *middleware.RateLimiter) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	l.Info("gRPC server configured", zap.String("service", ServiceName))
	return grpcServer, hs
}

// WatchDatabase pings db every interval and flips the health status of the
// library service accordingly. It returns when ctx is done.
func WatchDatabase(ctx context.Context, hs *health.Server, db *gorm.DB, interval time.Duration, l *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok := pingDatabase(ctx, db) == nil
		if ok == serving {
			continue
		}
		serving = ok

		status := healthpb.HealthCheckResponse_SERVING
		if !ok {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			l.Warn("database unreachable, reporting not serving")
		} else {
			l.Info("database reachable again")
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
