package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/api"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

// tokenTTL is the lifetime of tokens minted by /auth/token.
const tokenTTL = 24 * time.Hour

// Server is the notification HTTP service.
type Server struct {
	router    *gin.Engine
	repo      store.Repository
	jwtSecret string
	logger    *zap.Logger
}

// New builds the service around repo. Requests are authenticated with
// HS256 tokens signed with jwtSecret.
func New(repo store.Repository, jwtSecret string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		router:    router,
		repo:      repo,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router for http.Server and httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifyd"})
	})

	v1 := s.router.Group("/api/v1")
	v1.POST("/auth/token", s.handleIssueToken())
	v1.POST("/internal/notifications", s.handleCreate())

	authed := v1.Group("")
	authed.Use(JWTAuth(s.jwtSecret))
	{
		authed.GET("/notifications", s.handleList())
		authed.GET("/notifications/unread-count", s.handleUnreadCount())
		authed.PATCH("/notifications/mark-all-read", s.handleMarkAllRead())
		authed.PATCH("/notification/:id/read", s.handleMarkRead())
	}
}

// handleList returns every notification of the caller, newest first.
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.repo.ListNotifications(c.Request.Context(), userID(c), store.NotificationFilter{})
		if err != nil {
			s.internalError(c, "listing notifications", err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleUnreadCount returns the caller's unread count.
func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := s.repo.UnreadCount(c.Request.Context(), userID(c))
		if err != nil {
			s.internalError(c, "counting unread notifications", err)
			return
		}
		c.JSON(http.StatusOK, api.CountResponse{Count: count})
	}
}

// handleMarkRead marks one of the caller's notifications read. Marking
// an already-read notification succeeds.
func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		n, err := s.repo.GetNotification(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "notification not found"})
			return
		}
		if err != nil {
			s.internalError(c, "loading notification", err)
			return
		}

		if n.UserID != userID(c) {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "notification belongs to another user"})
			return
		}

		if _, err := s.repo.MarkNotificationRead(ctx, id); err != nil {
			s.internalError(c, "marking notification read", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleMarkAllRead marks all of the caller's notifications read.
func (s *Server) handleMarkAllRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		updated, err := s.repo.MarkAllNotificationsRead(c.Request.Context(), userID(c))
		if err != nil {
			s.internalError(c, "marking all notifications read", err)
			return
		}
		c.JSON(http.StatusOK, api.MarkAllResponse{Updated: updated})
	}
}

// handleCreate stores a new notification. It is unauthenticated and
// meant for seeding during development.
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req api.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}

		n, err := s.repo.CreateNotification(c.Request.Context(), model.Notification{
			UserID:           req.UserID,
			Kind:             model.ParseKind(req.Type),
			Title:            req.Title,
			Message:          req.Message,
			RelatedEntityRef: req.RelatedEntityRef,
		})
		if err != nil {
			s.internalError(c, "creating notification", err)
			return
		}
		c.JSON(http.StatusCreated, n)
	}
}

// handleIssueToken mints a development token for any user id.
func (s *Server) handleIssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req api.TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}

		token, err := IssueToken(s.jwtSecret, req.UserID, tokenTTL)
		if err != nil {
			s.internalError(c, "issuing token", err)
			return
		}
		c.JSON(http.StatusOK, api.TokenResponse{Token: token})
	}
}

// internalError logs err and answers 500 without leaking details.
func (s *Server) internalError(c *gin.Context, what string, err error) {
	s.logger.Error(what, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: what + " failed"})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
