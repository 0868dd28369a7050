package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrovolt/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func TestRateLimitFailsOpenWhenRedisUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Security.RateLimitPerMinute = 5

	// Nothing listens on port 1; every Redis call fails immediately and
	// the limiter must let the request through rather than 500.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	router := gin.New()
	router.Use(RateLimit(cfg, client, logger))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
