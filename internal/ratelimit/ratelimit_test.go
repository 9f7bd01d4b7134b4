package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimiter(rpm, burst int) *Limiter {
	return New(Config{
		RequestsPerMinute: rpm,
		BurstSize:         burst,
		CleanupInterval:   time.Minute,
	})
}

func TestAllowWithinBurst(t *testing.T) {
	l := newLimiter(60, 5)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("request beyond burst should be denied")
	}
}

func TestAllowReplenishes(t *testing.T) {
	l := newLimiter(600, 1) // 10 tokens/sec
	defer l.Stop()

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second immediate request should be denied")
	}

	time.Sleep(110 * time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("request after replenishment window should be allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := newLimiter(60, 2)
	defer l.Stop()

	l.Allow("caller-a")
	l.Allow("caller-a")
	if l.Allow("caller-a") {
		t.Fatal("caller-a should be exhausted")
	}
	if !l.Allow("caller-b") {
		t.Fatal("caller-b has its own bucket")
	}
}

func TestMiddlewareKeysAdminBySecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l := newLimiter(60, 1)
	defer l.Stop()

	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(secret string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		if secret != "" {
			req.Header.Set("X-Admin-Secret", secret)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Anonymous bucket exhausts after one request.
	if code := do(""); code != http.StatusOK {
		t.Fatalf("first anonymous request: got %d", code)
	}
	if code := do(""); code != http.StatusTooManyRequests {
		t.Fatalf("second anonymous request: got %d, want 429", code)
	}

	// Same IP with an admin secret draws from a separate bucket.
	if code := do("secret-a"); code != http.StatusOK {
		t.Fatalf("admin request should use its own bucket: got %d", code)
	}
	if code := do("secret-a"); code != http.StatusTooManyRequests {
		t.Fatalf("second admin request: got %d, want 429", code)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RequestsPerMinute != 60 || cfg.BurstSize != 10 || cfg.CleanupInterval != time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
