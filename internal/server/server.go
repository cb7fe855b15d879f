package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"baskt/internal/auth"
	"baskt/internal/logger"
	"baskt/internal/market"
	"baskt/internal/replay"
	"baskt/internal/store/gormstore"

	"github.com/gin-gonic/gin"
)

const userIDKey = "baskt_user_id"

// Server exposes the REST API: accounts, replay sessions and journal entries.
type Server struct {
	addr   string
	store  *gormstore.GormStore
	replay *replay.Service
	tokens *auth.TokenManager
	router *gin.Engine
}

type Config struct {
	Addr   string
	Store  *gormstore.GormStore
	Replay *replay.Service
	Tokens *auth.TokenManager
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Replay == nil || cfg.Tokens == nil {
		return nil, errors.New("server requires store, replay service and token manager")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8820"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		addr:   cfg.Addr,
		store:  cfg.Store,
		replay: cfg.Replay,
		tokens: cfg.Tokens,
		router: router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/signup", s.handleSignup)
	s.router.POST("/login", s.handleLogin)

	authed := s.router.Group("/", s.authRequired())
	authed.GET("/userdash", s.handleUserDash)
	authed.DELETE("/userdash", s.handleDeleteAccount)

	sessions := authed.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("", s.handleListSessions)
	sessions.GET("/:id", s.handleGetSession)
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.GET("/:id/data", s.handleSessionData)
	sessions.PUT("/:id/state", s.handleAdvanceState)
	sessions.PUT("/:id/complete", s.handleCompleteSession)
	sessions.GET("/:id/chart", s.handleSessionChart)

	journal := authed.Group("/journal")
	journal.POST("", s.handleCreateEntry)
	journal.GET("", s.handleListEntries)
	journal.GET("/:id", s.handleGetEntry)
	journal.PUT("/:id", s.handleUpdateEntry)
	journal.DELETE("/:id", s.handleDeleteEntry)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) Addr() string { return s.addr }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if _, err := s.store.UserByID(c.Request.Context(), userID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", c.Param("id"))
	}
	return id, nil
}

// writeError maps internal failures onto the stable HTTP classifications the
// API promises: 404 nothing-to-show, 503 try-again-later, 422 request
// rejected by the provider, 502 provider sent garbage, 400/409 caller errors.
func writeError(c *gin.Context, err error) {
	var provErr *market.ProviderError
	var payloadErr *market.PayloadError
	switch {
	case errors.Is(err, gormstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, replay.ErrSessionCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "session already completed"})
	case errors.Is(err, replay.ErrInvalidState), errors.Is(err, replay.ErrCursorOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, market.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data provider unreachable"})
	case errors.As(err, &provErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": provErr.Message})
	case errors.As(err, &payloadErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data provider returned an unreadable response"})
	default:
		logger.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
