package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter().(*memoryRateLimiter)
	defer rl.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if d := rl.Allow(ctx, "k", 3, time.Minute); !d.Allowed || d.Count != i {
			t.Fatalf("request %d: %+v", i, d)
		}
	}
	if d := rl.Allow(ctx, "k", 3, time.Minute); d.Allowed {
		t.Fatalf("4th request allowed: %+v", d)
	}
	if d := rl.Allow(ctx, "other", 3, time.Minute); !d.Allowed {
		t.Fatal("keys share a counter")
	}

	now = now.Add(61 * time.Second)
	if d := rl.Allow(ctx, "k", 3, time.Minute); !d.Allowed || d.Count != 1 {
		t.Fatalf("new window: %+v", d)
	}
	rl.cleanup(now.Add(2 * time.Minute))
	if len(rl.entries) != 0 {
		t.Fatalf("cleanup left %d entries", len(rl.entries))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewMemoryRateLimiter()
	defer rl.Close()
	m := NewMetrics()

	r := gin.New()
	r.POST("/login", RateLimit(rl, "login", 2, time.Minute, m), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		last = w
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if last.Header().Get("X-RateLimit-Limit") != "2" || last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("headers = %v", last.Header())
	}
	if !strings.Contains(last.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", last.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	m.AuthFallback.Inc()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`todo_api_http_requests_total{method="GET",route="/ping",status="204"} 1`,
		`todo_api_auth_fallback_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
