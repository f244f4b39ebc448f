package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/services"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	callers map[string]*services.Caller
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*services.Caller, error) {
	if caller, ok := s.callers[token]; ok {
		return caller, nil
	}
	return nil, errors.New("invalid")
}

func TestAuthMiddleware(t *testing.T) {
	auth := stubAuth{callers: map[string]*services.Caller{
		"officer": {UserID: 1, Role: models.RoleOfficer},
		"admin":   {UserID: 2, Role: models.RoleAdmin},
	}}

	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetCaller(c).UserID})
	})
	r.GET("/admin", AuthMiddleware(auth), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"MissingHeader", "/me", "", http.StatusUnauthorized},
		{"BadFormat", "/me", "officer", http.StatusUnauthorized},
		{"UnknownToken", "/me", "Bearer nope", http.StatusUnauthorized},
		{"Valid", "/me", "Bearer officer", http.StatusOK},
		{"OfficerOnAdminRoute", "/admin", "Bearer officer", http.StatusForbidden},
		{"AdminOnAdminRoute", "/admin", "Bearer admin", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(5, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retry, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, errors.New("redis: connection refused")
}

func TestRateLimit(t *testing.T) {
	log, hook := test.NewNullLogger()

	t.Run("Throttles", func(t *testing.T) {
		r := gin.New()
		r.POST("/public", RateLimit(NewMemoryLimiter(1, time.Minute), log), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/public", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/public", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("FailsOpen", func(t *testing.T) {
		r := gin.New()
		r.POST("/public", RateLimit(failingLimiter{}, log), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/public", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, hook.Entries)
	})
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	log, _ := test.NewNullLogger()

	newEngine := func(trusted []string) *gin.Engine {
		r := gin.New()
		require.NoError(t, r.SetTrustedProxies(trusted))
		r.POST("/public", RateLimit(NewMemoryLimiter(5, time.Minute), log), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		return r
	}

	send := func(r *gin.Engine, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/public", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("NoTrustedProxies", func(t *testing.T) {
		r := newEngine(nil)
		var codes []int
		for i := 0; i < 10; i++ {
			codes = append(codes, send(r, fmt.Sprintf("198.51.100.%d", i)))
		}
		assert.Equal(t, []int{201, 201, 201, 201, 201, 429, 429, 429, 429, 429}, codes)
	})

	t.Run("TrustedProxyForwardsClientIP", func(t *testing.T) {
		r := newEngine([]string{"192.0.2.1"})
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusCreated, send(r, fmt.Sprintf("198.51.100.%d", i)))
		}
		for i := 0; i < 5; i++ {
			send(r, "203.0.113.9")
		}
		assert.Equal(t, http.StatusTooManyRequests, send(r, "203.0.113.9"))
	})
}
