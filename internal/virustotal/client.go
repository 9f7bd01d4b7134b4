// Package virustotal wraps the VirusTotal v3 domain reputation API as a
// url_scan signal provider with caching and a circuit breaker.
package virustotal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/chaincheck/chaincheck/internal/signal"
)

// DefaultBaseURL is the production VirusTotal API endpoint.
const DefaultBaseURL = "https://www.virustotal.com/api/v3"

// Config carries the client's injected configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client queries the VirusTotal v3 API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a VirusTotal API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Report is the distilled outcome of a domain reputation lookup.
type Report struct {
	Verdict        signal.ScanVerdict
	Positives      int
	Total          int
	MaliciousCount int
	Engines        []string
	Permalink      string
}

// Verdict thresholds. A handful of engines crying malicious is consensus;
// a single detection is only suspicion.
const (
	maliciousEngineMin = 3
	maliciousPositives = 5
	maxNamedEngines    = 5
)

// vtDomainResponse mirrors the slice of the v3 payload we consume.
type vtDomainResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisResults map[string]struct {
				Category   string `json:"category"`
				EngineName string `json:"engine_name"`
			} `json:"last_analysis_results"`
		} `json:"attributes"`
	} `json:"data"`
}

// DomainReport fetches and classifies the reputation of a bare domain.
// A 404 is not an error: an unseen domain yields verdict "unknown".
func (c *Client) DomainReport(ctx context.Context, domain string) (*Report, error) {
	url := fmt.Sprintf("%s/domains/%s", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query virustotal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Report{
			Verdict:   signal.VerdictUnknown,
			Permalink: permalink(domain),
		}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("virustotal returned status %d", resp.StatusCode)
	}

	var payload vtDomainResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode virustotal response: %w", err)
	}

	return classify(domain, payload), nil
}

// classify derives the verdict from per-engine categories.
func classify(domain string, payload vtDomainResponse) *Report {
	var (
		maliciousNames  []string
		suspiciousNames []string
		total           int
	)

	for name, res := range payload.Data.Attributes.LastAnalysisResults {
		switch res.Category {
		case "malicious":
			maliciousNames = append(maliciousNames, engineName(name, res.EngineName))
			total++
		case "suspicious":
			suspiciousNames = append(suspiciousNames, engineName(name, res.EngineName))
			total++
		case "harmless", "undetected":
			total++
		}
	}
	sort.Strings(maliciousNames)
	sort.Strings(suspiciousNames)

	maliciousCount := len(maliciousNames)
	positives := maliciousCount + len(suspiciousNames)

	verdict := signal.VerdictUnknown
	switch {
	case total == 0:
		verdict = signal.VerdictUnknown
	case maliciousCount >= maliciousEngineMin || positives >= maliciousPositives:
		verdict = signal.VerdictMalicious
	case positives >= 1:
		verdict = signal.VerdictSuspicious
	default:
		verdict = signal.VerdictClean
	}

	engines := append(maliciousNames, suspiciousNames...)
	if len(engines) > maxNamedEngines {
		engines = engines[:maxNamedEngines]
	}

	return &Report{
		Verdict:        verdict,
		Positives:      positives,
		Total:          total,
		MaliciousCount: maliciousCount,
		Engines:        engines,
		Permalink:      permalink(domain),
	}
}

func engineName(key, name string) string {
	if name != "" {
		return name
	}
	return key
}

func permalink(domain string) string {
	return "https://www.virustotal.com/gui/domain/" + domain
}
