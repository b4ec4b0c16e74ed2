// Package server exposes the dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/ashutoshrp06/sow-assistant/internal/validator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler answers one question in one mode.
type Handler interface {
	Handle(ctx context.Context, question string, mode types.Mode) (string, error)
}

// Config holds HTTP surface settings.
type Config struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	Tools              []types.ToolInfo
	Logger             *zap.Logger
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	Mode     string `json:"mode"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Mode   string `json:"mode"`
	Err    string `json:"err,omitempty"`
}

// New builds the router.
func New(h Handler, cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.Logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	if cfg.RateLimitPerMinute > 0 {
		v1.Use(RateLimitMiddleware(NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)))
	}
	{
		v1.POST("/ask", askHandler(h))
		v1.GET("/tools", func(c *gin.Context) {
			c.JSON(http.StatusOK, cfg.Tools)
		})
	}

	return r
}

// POST /v1/ask
func askHandler(h Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req askRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "bad payload"})
			return
		}

		mode := types.ModeSimpleRAG
		if req.Mode != "" {
			m, err := types.ParseMode(req.Mode)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
				return
			}
			mode = m
		}

		answer, err := h.Handle(c.Request.Context(), req.Question, mode)
		resp := askResponse{Answer: answer, Mode: mode.String()}
		if err != nil {
			resp.Err = err.Error()
		}
		c.JSON(statusFor(err), resp)
	}
}

func statusFor(err error) int {
	var (
		retErr *types.RetrievalError
		genErr *types.GenerationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, validator.ErrInvalidQuestion):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &retErr), errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
