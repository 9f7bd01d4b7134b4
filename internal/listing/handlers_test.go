package listing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminRouter() (*gin.Engine, *MemoryStore) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore()
	h := NewHandler(store)

	r := gin.New()
	admin := r.Group("/admin")
	h.RegisterAdminRoutes(admin)
	return r, store
}

func TestAddBlacklistNormalizesValue(t *testing.T) {
	r, store := newAdminRouter()

	body := `{"value": "HTTPS://WWW.Evil-Site.COM/login", "category": "phishing", "reason": "fake login page"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/blacklist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Entry struct {
			Normalized string `json:"normalizedValue"`
			EntityType string `json:"entityType"`
			Category   string `json:"category"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "evil-site.com", resp.Entry.Normalized)
	assert.Equal(t, "DOMAIN", resp.Entry.EntityType)
	assert.Equal(t, "phishing", resp.Entry.Category)

	// The normalized form is what the provider will hit.
	hit, err := store.LookupBlacklist(req.Context(), "evil-site.com", "DOMAIN")
	require.NoError(t, err)
	require.NotNil(t, hit)
}

func TestAddBlacklistRejectsBadCategory(t *testing.T) {
	r, _ := newAdminRouter()

	body := `{"value": "evil.com", "category": "villainy"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/blacklist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddBlacklistDuplicateConflicts(t *testing.T) {
	r, _ := newAdminRouter()

	body := `{"value": "evil.com", "category": "scam"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/admin/blacklist", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "request %d", i)
	}
}

func TestRemoveBlacklist(t *testing.T) {
	r, _ := newAdminRouter()

	body := `{"value": "evil.com", "category": "scam"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/blacklist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/blacklist/evil.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/blacklist/evil.com", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWhitelistRoundTrip(t *testing.T) {
	r, _ := newAdminRouter()

	body := `{"value": "@CoinbaseSupport", "source": "verified-partners"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/whitelist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Entry struct {
			Normalized string `json:"normalizedValue"`
			EntityType string `json:"entityType"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "coinbasesupport", resp.Entry.Normalized)
	assert.Equal(t, "TWITTER", resp.Entry.EntityType)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/whitelist", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}
