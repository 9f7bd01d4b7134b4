package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func adminRequest(t *testing.T, secret, header string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/admin/blacklist", nil)
	if header != "" {
		c.Request.Header.Set("X-Admin-Secret", header)
	}

	RequireAdmin(secret)(c)
	return w
}

func TestRequireAdmin_CorrectSecret(t *testing.T) {
	w := adminRequest(t, "supersecret123", "supersecret123")
	if w.Code != http.StatusOK {
		t.Errorf("Expected correct secret to pass, got %d", w.Code)
	}
}

func TestRequireAdmin_MissingHeader(t *testing.T) {
	w := adminRequest(t, "supersecret123", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without header, got %d", w.Code)
	}
}

func TestRequireAdmin_WrongSecret(t *testing.T) {
	w := adminRequest(t, "supersecret123", "wrongsecret")
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for wrong secret, got %d", w.Code)
	}
}

func TestRequireAdmin_NoSecretConfigured(t *testing.T) {
	w := adminRequest(t, "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected open access without configured secret, got %d", w.Code)
	}
}
