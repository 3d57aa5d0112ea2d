package stories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	msgSubmitted  = "Story submitted successfully"
	msgReadError  = "Error reading file"
	msgWriteError = "Error writing file"
	msgBadBody    = "Invalid JSON body"
)

// Appender stores one submitted document.
type Appender interface {
	Append(story json.RawMessage) error
}

type RouterConfig struct {
	// StaticDir, when set, is served for every path without a route.
	StaticDir string
	// AllowOrigins restricts CORS. Empty allows any origin.
	AllowOrigins []string
}

// NewRouter builds the endpoint's gin engine.
func NewRouter(store Appender, cfg RouterConfig, logger zerolog.Logger) *gin.Engine {
	logger = logger.With().Str("component", "stories").Logger()

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors.New(corsConfig(cfg.AllowOrigins)))

	router.POST("/submit-story", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.String(http.StatusBadRequest, msgBadBody)
			return
		}
		body = bytes.TrimSpace(body)
		if len(body) == 0 {
			body = []byte("{}")
		}
		if !json.Valid(body) {
			c.String(http.StatusBadRequest, msgBadBody)
			return
		}

		if err := store.Append(body); err != nil {
			logger.Warn().Err(err).Msg("failed to store story")
			if errors.Is(err, ErrReadFile) {
				c.String(http.StatusInternalServerError, msgReadError)
				return
			}
			c.String(http.StatusInternalServerError, msgWriteError)
			return
		}
		c.String(http.StatusOK, msgSubmitted)
	})

	if cfg.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("stories server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
