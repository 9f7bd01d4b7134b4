package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"  hello  ", 100, "hello"},
		{"with\x00null", 100, "withnull"},
		{strings.Repeat("a", 20), 10, "aaaaaaaaaa"},
		{"", 100, ""},
	}

	for _, tc := range tests {
		if got := SanitizeString(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestSizeMiddleware(10))
	router.POST("/test", func(c *gin.Context) {
		var buf [64]byte
		_, err := c.Request.Body.Read(buf[:])
		if err != nil && err.Error() != "EOF" {
			c.String(413, "too large")
			return
		}
		c.String(200, "ok")
	})

	small := httptest.NewRequest("POST", "/test", strings.NewReader("tiny"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, small)
	if w.Code != 200 {
		t.Errorf("small body status = %d, want 200", w.Code)
	}

	large := httptest.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("x", 100)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, large)
	if w.Code != 413 {
		t.Errorf("large body status = %d, want 413", w.Code)
	}
}

func TestEntityParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/check/:entity", EntityParamMiddleware(), func(c *gin.Context) {
		c.String(200, "ok")
	})

	ok := httptest.NewRequest("GET", "/check/example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, ok)
	if w.Code != 200 {
		t.Errorf("normal entity status = %d, want 200", w.Code)
	}

	long := httptest.NewRequest("GET", "/check/"+strings.Repeat("a", 600), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, long)
	if w.Code != 400 {
		t.Errorf("oversized entity status = %d, want 400", w.Code)
	}
}
