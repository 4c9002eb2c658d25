package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apihttp "github.com/GriffinCanCode/chardrv/internal/api/http"
	"github.com/GriffinCanCode/chardrv/internal/api/middleware"
	"github.com/GriffinCanCode/chardrv/internal/api/ws"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/config"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/tracing"
)

// HealthService is the gRPC health service name of the device.
const HealthService = "chardrv"

// Server owns the loaded device module and the HTTP and gRPC front ends.
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	module  *device.Module

	router     *gin.Engine
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the logger built from the logging config.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer builds the server and loads the device module. A module that
// fails to load fails the server.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	moduleCfg, err := cfg.Device.Module()
	if err != nil {
		return nil, err
	}

	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		logCfg := logging.DefaultConfig()
		if cfg.Logging.Development {
			logCfg = logging.DevelopmentConfig()
		}
		logCfg.Level = cfg.Logging.Level
		logCfg.RingSize = cfg.Logging.RingSize

		logger, err := logging.New(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}

	s.logger.Info("Initializing chardrv server",
		zap.String("port", cfg.Server.Port),
		zap.String("grpc_port", cfg.GRPC.Port),
		zap.String("device", cfg.Device.Name),
	)

	s.metrics = monitoring.NewMetrics()
	s.tracer = tracing.New("chardrv", s.logger.Logger)

	s.module = device.NewModule(moduleCfg,
		device.WithModuleLogger(s.logger.Logger),
		device.WithModuleRecorder(s.metrics),
	)
	if err := s.module.Init(); err != nil {
		s.tracer.Close()
		return nil, fmt.Errorf("failed to load device module: %w", err)
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.GRPC.Enabled {
		s.health = health.NewServer()
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		s.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)

		s.grpcServer = grpc.NewServer(
			grpc.ChainUnaryInterceptor(
				tracing.GRPCUnaryInterceptor(s.tracer),
				monitoring.UnaryServerInterceptor(s.metrics),
			),
			grpc.ChainStreamInterceptor(tracing.GRPCStreamInterceptor(s.tracer)),
		)
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
	}

	s.logger.Info("Server initialized successfully")
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if rl := s.config.RateLimit; rl.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst),
		)
		if rl.GlobalRequestsPerSecond > 0 {
			s.logger.Info("Global rate limit enabled", zap.Int("rps", rl.GlobalRequestsPerSecond))
			router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: rl.GlobalRequestsPerSecond,
				Burst:             rl.GlobalRequestsPerSecond,
			}))
		}
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
		}))
	}

	apihttp.NewHandlers(s.module,
		apihttp.WithMetrics(s.metrics),
		apihttp.WithRing(s.logger.Ring()),
		apihttp.WithLogger(s.logger.Logger),
	).Register(router)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/stream", ws.NewHandler(s.module, s.metrics, s.logger.Logger).HandleConnection)

	return router
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine { return s.router }

// Module returns the loaded device module.
func (s *Server) Module() *device.Module { return s.module }

// Metrics returns the server's metrics.
func (s *Server) Metrics() *monitoring.Metrics { return s.metrics }

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	httpAddr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("listen %s: %w", httpAddr, err)
	}

	var grpcLn net.Listener
	if s.grpcServer != nil {
		grpcAddr := net.JoinHostPort(s.config.Server.Host, s.config.GRPC.Port)
		grpcLn, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			httpLn.Close()
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("listen %s: %w", grpcAddr, err)
		}
	}

	return s.Serve(ctx, httpLn, grpcLn)
}

// Serve serves HTTP on httpLn and, when gRPC is enabled, health checks on
// grpcLn. It returns after ctx is done or a listener fails, having shut
// everything down.
func (s *Server) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	errCh := make(chan error, 2)

	if limit := s.config.Server.MaxConnections; limit > 0 {
		httpLn = netutil.LimitListener(httpLn, limit)
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", httpLn.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.grpcServer != nil && grpcLn != nil {
		s.logger.Info("Starting gRPC health server", zap.String("addr", grpcLn.Addr().String()))
		go func() {
			if err := s.grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		s.logger.Error("Server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Shutdown stops accepting work, unloads the device module and flushes
// logs. Only the first call does anything.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Server) shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.health != nil {
		s.health.Shutdown()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.grpcServer != nil {
		stopGRPC(ctx, s.grpcServer)
	}

	if err := s.module.Cleanup(); err != nil {
		s.logger.Error("Device module cleanup failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("module cleanup: %w", err))
	}

	s.tracer.Close()
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// stopGRPC drains in-flight calls, or cuts them off once ctx expires.
func stopGRPC(ctx context.Context, gs *grpc.Server) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		gs.Stop()
		<-done
	}
}
