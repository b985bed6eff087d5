package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tafsiri/tafsiri/internal/db"
	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

// ConnectionTester checks connectivity to a relational database
type ConnectionTester interface {
	Test(ctx context.Context, req models.ConnectionRequest) error
}

// Options configures a Server
type Options struct {
	CORSOrigin string
	// RateLimit is the number of connection tests allowed per second,
	// zero disables limiting
	RateLimit float64
	Burst     int
	Logger    *logger.Logger
}

// Server is the HTTP API server
type Server struct {
	router  *gin.Engine
	store   db.ConfigStore
	tester  ConnectionTester
	schema  *models.Schema
	limiter *rate.Limiter
	opts    Options
}

// NewServer creates a new API server
func NewServer(store db.ConfigStore, tester ConnectionTester, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	s := &Server{
		router: gin.New(),
		store:  store,
		tester: tester,
		schema: models.ConfigurationSchema,
		opts:   opts,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(logger.GinMiddleware(opts.Logger))
	s.router.Use(s.corsMiddleware())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	s.router.GET("/get_configs", s.listConfigs)
	s.router.POST("/new_config", s.createConfig)
	s.router.GET("/get_config/:config_id", s.getConfig)
	s.router.PUT("/update_config/:config_id", s.updateConfig)
	s.router.DELETE("/delete_config/:config_id", s.deleteConfig)

	s.router.POST("/test_db_connection", s.testDBConnection)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API on address until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.errorResponse(c, http.StatusServiceUnavailable, models.KindUnavailable, "Store unreachable: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := s.opts.CORSOrigin
		if origin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+logger.RequestIDHeader)
		if origin != "*" {
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// errorResponse writes a failure body
func (s *Server) errorResponse(c *gin.Context, status int, kind models.ErrorKind, message string) {
	c.JSON(status, models.ErrorResponse{
		Detail: message,
		Kind:   kind,
	})
}

// failure maps a store or tester error onto its HTTP status
func (s *Server) failure(c *gin.Context, err error) {
	_ = c.Error(err)

	var e *models.Error
	if !errors.As(err, &e) {
		s.errorResponse(c, http.StatusInternalServerError, models.KindInternal, err.Error())
		return
	}

	message := e.Message
	if e.Kind == models.KindInternal {
		message = e.Error()
	}
	s.errorResponse(c, StatusForKind(e.Kind), e.Kind, message)
}

// StatusForKind returns the HTTP status code for an error kind
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidID, models.KindInvalidPayload, models.KindOperationFailed:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
