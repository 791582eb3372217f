package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"library-service/cmd/api/di"
	"library-service/internal/config"
)

const dbHealthInterval = 15 * time.Second

// Server holds the three listeners of the service: the gin REST API, the gRPC
// server and the ops gateway.
type Server struct {
	Config    *config.Config
	Logger    *zap.Logger
	Container *di.Container
	GRPC      *grpc.Server
	Health    *health.Server
	Gin       *http.Server
	HTTP      *http.Server // ops gateway

	gatewayConn *grpc.ClientConn
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) (*Server, error) {
	grpcServer, hs := SetupGRPC(l, c.RateLimiter)

	gateway, conn, err := SetupHTTPGateway("localhost:"+cfg.App.GRPCPort, ":"+cfg.App.GatewayPort, l)
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:    cfg,
		Logger:    l,
		Container: c,
		GRPC:      grpcServer,
		Health:    hs,
		Gin: SetupGinServer(c.Handlers, c.RateLimiter, cfg.App.AllowedOrigins,
			":"+cfg.App.HTTPPort, cfg.Logger.Level == "debug", l),
		HTTP:        gateway,
		gatewayConn: conn,
	}, nil
}

// Start runs every listener until one fails or ctx is done. Servers stopped by
// Shutdown do not count as failures.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(s.startGRPC)
	g.Go(func() error { return serveHTTP(s.Gin, "Gin REST API", s.Logger) })
	g.Go(func() error { return serveHTTP(s.HTTP, "ops gateway", s.Logger) })
	g.Go(func() error {
		WatchDatabase(ctx, s.Health, s.Container.DB, dbHealthInterval, s.Logger)
		return nil
	})

	return g.Wait()
}

// Shutdown stops the listeners, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.Health.Shutdown()

	s.Logger.Info("shutting down Gin server...")
	if err := s.Gin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
	}

	s.Logger.Info("shutting down ops gateway...")
	if err := s.HTTP.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gateway shutdown: %w", err))
	}
	if err := s.gatewayConn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gateway conn close: %w", err))
	}

	s.Logger.Info("shutting down gRPC server...")
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.GRPC.Stop()
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
	}

	return errors.Join(errs...)
}

func (s *Server) startGRPC() error {
	lc := net.ListenConfig{}
	addr := ":" + s.Config.App.GRPCPort
	lis, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.Logger.Info("gRPC server running", zap.String("address", addr))
	if err := s.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server: %w", err)
	}
	return nil
}

func serveHTTP(srv *http.Server, name string, l *zap.Logger) error {
	l.Info(name+" running", zap.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
