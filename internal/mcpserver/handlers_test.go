package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	cfg := Config{
		APIURL:      ts.URL,
		AdminSecret: "test-secret",
	}
	client := NewChainCheckClient(cfg)
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_AdminHeader(t *testing.T) {
	var gotSecret string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Admin-Secret")
		_, _ = w.Write([]byte(`{"entries":[]}`))
	}))
	defer ts.Close()

	client := NewChainCheckClient(Config{APIURL: ts.URL, AdminSecret: "s3cret"})
	_, err := client.ListBlacklist(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", gotSecret)
}

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "unclassifiable_entity",
			"message": "Value does not match any known entity shape",
		})
	}))
	defer ts.Close()

	client := NewChainCheckClient(Config{APIURL: ts.URL})
	_, err := client.CheckEntity(context.Background(), "???")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Value does not match any known entity shape")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewChainCheckClient(Config{APIURL: ts.URL})
	_, err := client.CheckEntity(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewChainCheckClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.CheckEntity(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

// ============================================================
// Handler tests
// ============================================================

func checkResponseBody() map[string]any {
	return map[string]any{
		"meta": map[string]any{"requestId": "req_1"},
		"data": map[string]any{
			"checkId": "chk_abc",
			"entity": map[string]any{
				"value":           "evil.com",
				"entityType":      "DOMAIN",
				"normalizedValue": "evil.com",
			},
			"assessment": map[string]any{
				"riskLevel":      "FRAUD",
				"riskScore":      100,
				"threatCategory": "phishing",
				"confidence":     0.95,
			},
			"signals": map[string]any{
				"blacklist": map[string]any{
					"found": true, "category": "phishing", "source": "internal",
				},
				"virusTotal": map[string]any{
					"verdict": "malicious", "positives": 7, "total": 20,
				},
			},
			"stats": map[string]any{
				"timesSearched": 12, "userReportCount": 3,
			},
		},
	}
}

func TestHandleCheckEntity(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/check/evil.com", r.URL.Path)
		_ = json.NewEncoder(w).Encode(checkResponseBody())
	}))
	defer cleanup()

	result, err := h.HandleCheckEntity(context.Background(), makeRequest(map[string]any{
		"value": "evil.com",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "FRAUD")
	assert.Contains(t, text, "phishing")
	assert.Contains(t, text, "7/20 engines")
	assert.Contains(t, text, "Community reports: 3")
}

func TestHandleCheckEntity_MissingValue(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach the API")
	}))
	defer cleanup()

	result, err := h.HandleCheckEntity(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleCheckEntity_APIError(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error","message":"boom"}`))
	}))
	defer cleanup()

	result, err := h.HandleCheckEntity(context.Background(), makeRequest(map[string]any{
		"value": "evil.com",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleReportEntity(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/reports", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "scam.com", body["value"])
		assert.Equal(t, "scam", body["category"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"report": map[string]any{"id": "rep_xyz", "normalizedValue": "scam.com"},
		})
	}))
	defer cleanup()

	result, err := h.HandleReportEntity(context.Background(), makeRequest(map[string]any{
		"value":       "scam.com",
		"category":    "scam",
		"description": "fake giveaway",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "rep_xyz")
	assert.Contains(t, text, "scam.com")
}

func TestHandleReportEntity_MissingCategory(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach the API")
	}))
	defer cleanup()

	result, err := h.HandleReportEntity(context.Background(), makeRequest(map[string]any{
		"value": "scam.com",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetReports(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/reports/scam.com", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reports": []map[string]any{
				{"category": "phishing", "description": "stole my keys", "createdAt": "2026-08-30T10:00:00Z"},
			},
			"total": 4,
		})
	}))
	defer cleanup()

	result, err := h.HandleGetReports(context.Background(), makeRequest(map[string]any{
		"value": "scam.com",
		"limit": 5,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "4 report(s)")
	assert.Contains(t, text, "phishing")
	assert.Contains(t, text, "stole my keys")
}

func TestHandleGetReports_Empty(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"reports": []map[string]any{}, "total": 0})
	}))
	defer cleanup()

	result, err := h.HandleGetReports(context.Background(), makeRequest(map[string]any{
		"value": "clean.com",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "No reports")
}

func TestHandleListBlacklist(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/blacklist", r.URL.Path)
		assert.Equal(t, "test-secret", r.Header.Get("X-Admin-Secret"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entries": []map[string]any{
				{"normalizedValue": "evil.com", "entityType": "DOMAIN", "category": "phishing", "reason": "kit host"},
			},
			"count": 1,
		})
	}))
	defer cleanup()

	result, err := h.HandleListBlacklist(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "evil.com")
	assert.Contains(t, text, "phishing")
	assert.Contains(t, text, "kit host")
}
