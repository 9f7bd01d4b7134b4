// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	stdsignal "os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/chaincheck/chaincheck/internal/auth"
	"github.com/chaincheck/chaincheck/internal/check"
	"github.com/chaincheck/chaincheck/internal/circuitbreaker"
	"github.com/chaincheck/chaincheck/internal/config"
	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/health"
	"github.com/chaincheck/chaincheck/internal/identity"
	"github.com/chaincheck/chaincheck/internal/idgen"
	"github.com/chaincheck/chaincheck/internal/listing"
	"github.com/chaincheck/chaincheck/internal/logging"
	"github.com/chaincheck/chaincheck/internal/lookalike"
	"github.com/chaincheck/chaincheck/internal/metrics"
	"github.com/chaincheck/chaincheck/internal/mlscore"
	"github.com/chaincheck/chaincheck/internal/ratelimit"
	"github.com/chaincheck/chaincheck/internal/realtime"
	"github.com/chaincheck/chaincheck/internal/reports"
	"github.com/chaincheck/chaincheck/internal/retry"
	"github.com/chaincheck/chaincheck/internal/security"
	"github.com/chaincheck/chaincheck/internal/signal"
	"github.com/chaincheck/chaincheck/internal/traces"
	"github.com/chaincheck/chaincheck/internal/txhistory"
	"github.com/chaincheck/chaincheck/internal/validation"
	"github.com/chaincheck/chaincheck/internal/virustotal"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	db           *sql.DB // nil if using in-memory
	checkService *check.Service
	checkStore   check.Store
	listingStore listing.Store
	identStore   identity.Store
	reportStore  reports.Store
	lookalikes   *lookalike.Detector
	realtimeHub  *realtime.Hub
	chainClient  interface{ Close() } // non-nil when an RPC endpoint is configured
	rateLimiter  *ratelimit.Limiter
	healthReg    *health.Registry
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc     // cancels background goroutines started in Run
	stopTraces   func(context.Context) error

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Tracing (no-op when no OTLP endpoint configured)
	stopTraces, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
		stopTraces = func(context.Context) error { return nil }
	}
	s.stopTraces = stopTraces

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// The database may still be coming up alongside us
		err = retry.Do(ctx, 5, time.Second, func() error {
			return db.Ping()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.checkStore = check.NewPostgresStore(db)
		s.listingStore = listing.NewPostgresStore(db)
		s.identStore = identity.NewPostgresStore(db)
		s.reportStore = reports.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
	} else {
		s.checkStore = check.NewMemoryStore()
		s.listingStore = listing.NewMemoryStore()
		s.identStore = identity.NewMemoryStore()
		s.reportStore = reports.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	// VirusTotal scanner
	vtBase := cfg.VTBaseURL
	if vtBase != config.DefaultVTBaseURL {
		// A custom scanner URL is a server-side request target; refuse unsafe ones
		if err := security.ValidateEndpointURL(vtBase); err != nil {
			s.logger.Warn("rejecting custom scanner URL", "url", vtBase, "error", err)
			vtBase = config.DefaultVTBaseURL
		}
	}
	vtClient := virustotal.NewClient(virustotal.Config{
		APIKey:  cfg.VTAPIKey,
		BaseURL: vtBase,
	})
	vtProvider := virustotal.NewProvider(vtClient,
		virustotal.WithCacheTTL(cfg.ScanCacheTTL),
		virustotal.WithBreaker(circuitbreaker.New(5, 30*time.Second)),
	)
	if vtClient.Configured() {
		s.logger.Info("url scanner enabled", "base_url", vtBase)
	} else {
		s.logger.Info("url scanner disabled (no VT_API_KEY set)")
	}

	// On-chain activity reader
	txProvider := txhistory.NewProvider(nil)
	if cfg.RPCURL != "" {
		client, err := txhistory.Dial(cfg.RPCURL)
		if err != nil {
			s.logger.Warn("failed to connect to rpc, tx_history disabled", "error", err)
		} else {
			txProvider = txhistory.NewProvider(client)
			s.chainClient = client
			s.logger.Info("on-chain activity enabled", "chain_id", cfg.ChainID)
		}
	} else {
		s.logger.Info("on-chain activity disabled (no RPC_URL set)")
	}

	// Signal providers, fanned out per check
	s.lookalikes = lookalike.NewDetector()
	providers := []signal.Provider{
		listing.NewBlacklistProvider(s.listingStore),
		listing.NewWhitelistProvider(s.listingStore),
		identity.NewProvider(s.identStore),
		s.lookalikes,
		mlscore.NewScorer(),
		vtProvider,
		txProvider,
	}
	invoker := signal.NewInvoker(providers,
		signal.WithDefaultTimeout(cfg.ProviderTimeout),
		signal.WithLogger(s.logger),
	)

	// Realtime hub for the websocket feed
	s.realtimeHub = realtime.NewHub(s.logger)

	s.checkService = check.NewService(invoker, s.checkStore, s.logger).
		WithReports(s.reportStore).
		WithPublisher(s.realtimeHub)

	// Subsystem health checks
	s.healthReg = health.NewRegistry()
	if s.db != nil {
		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := s.db.PingContext(pingCtx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	}
	s.healthReg.Register("url_scanner", func(ctx context.Context) health.Status {
		if !vtClient.Configured() {
			return health.Status{Name: "url_scanner", Healthy: true, Detail: "unconfigured"}
		}
		return health.Status{Name: "url_scanner", Healthy: true}
	})

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.WithPrefix("req_")
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// API info
	s.router.GET("/", s.infoHandler)
	s.router.GET("/api", s.infoHandler)

	// WebSocket for the live check feed
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// PUBLIC API (checks and reports)
	api := s.router.Group("/api/v1")
	api.Use(validation.EntityParamMiddleware())

	checkHandler := check.NewHandler(s.checkService)
	checkHandler.RegisterRoutes(api)

	reportHandler := reports.NewHandler(s.reportStore).WithPublisher(s.realtimeHub)
	reportHandler.RegisterRoutes(api)

	// ADMIN API (list curation, identity registry)
	admin := s.router.Group("/admin")
	admin.Use(auth.RequireAdmin(s.cfg.AdminSecret))
	{
		listing.NewHandler(s.listingStore).RegisterAdminRoutes(admin)
		identity.NewHandler(s.identStore).RegisterAdminRoutes(admin)

		// Runtime lookalike target management
		admin.POST("/lookalike/targets", s.addLookalikeTarget)

		// Feed observability
		admin.GET("/feed/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, s.realtimeHub.Stats())
		})
	}
}

// addLookalikeTarget registers an additional protected name at runtime.
// POST /admin/lookalike/targets
func (s *Server) addLookalikeTarget(c *gin.Context) {
	var req struct {
		Target     string `json:"target" binding:"required"`
		EntityType string `json:"entityType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Body must contain 'target' and 'entityType'",
		})
		return
	}

	typ := entity.Type(req.EntityType)
	if typ != entity.TypeDomain && typ != entity.TypeTwitter {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_target",
			"message": "entityType must be DOMAIN or TWITTER",
		})
		return
	}

	s.lookalikes.AddTarget(typ, req.Target)
	c.JSON(http.StatusCreated, gin.H{"target": req.Target, "entityType": typ})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"version":   "0.1.0",
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "ChainCheck",
		"description": "Fraud and risk checks for crypto addresses, domains, handles, and emails",
		"version":     "0.1.0",
		"endpoints": gin.H{
			"check":   "GET /api/v1/check/{entity}",
			"stats":   "GET /api/v1/check/{entity}/stats",
			"report":  "POST /api/v1/reports",
			"reports": "GET /api/v1/reports/{entity}",
			"feed":    "GET /ws",
		},
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Sample DB pool stats into Prometheus
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	stdsignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for background goroutines (hub, collectors)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	if s.cfg.IsProduction() {
		time.Sleep(5 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Close the chain RPC connection
	if s.chainClient != nil {
		s.chainClient.Close()
		s.logger.Info("rpc connection closed")
	}

	// Flush traces
	if s.stopTraces != nil {
		if err := s.stopTraces(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
