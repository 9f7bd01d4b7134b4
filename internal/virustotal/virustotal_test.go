package virustotal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chaincheck/chaincheck/internal/circuitbreaker"
	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// analysisBody builds a v3 payload with the given engine category counts.
func analysisBody(malicious, suspicious, harmless int) string {
	body := `{"data":{"attributes":{"last_analysis_results":{`
	sep := ""
	n := 0
	add := func(category string, count int) {
		for i := 0; i < count; i++ {
			body += fmt.Sprintf(`%s"engine%02d":{"category":%q,"engine_name":"Engine%02d"}`, sep, n, category, n)
			sep = ","
			n++
		}
	}
	add("malicious", malicious)
	add("suspicious", suspicious)
	add("harmless", harmless)
	return body + `}}}}`
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	return client, srv
}

func TestDomainReport404IsUnknown(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	report, err := client.DomainReport(context.Background(), "never-seen.com")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if report.Verdict != signal.VerdictUnknown {
		t.Errorf("verdict = %s, want unknown", report.Verdict)
	}
	if report.Positives != 0 || report.Total != 0 {
		t.Errorf("report = %+v, want zero counts", report)
	}
}

func TestDomainReportMalicious(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody(7, 0, 13))
	})
	defer srv.Close()

	report, err := client.DomainReport(context.Background(), "evil.com")
	if err != nil {
		t.Fatalf("DomainReport: %v", err)
	}
	if report.Positives != 7 {
		t.Errorf("positives = %d, want 7", report.Positives)
	}
	if report.Total != 20 {
		t.Errorf("total = %d, want 20", report.Total)
	}
	if report.Verdict != signal.VerdictMalicious {
		t.Errorf("verdict = %s, want malicious", report.Verdict)
	}
	if len(report.Engines) != maxNamedEngines {
		t.Errorf("engines = %d names, want capped at %d", len(report.Engines), maxNamedEngines)
	}
}

func TestDomainReportSuspiciousBelowThreshold(t *testing.T) {
	// 2 malicious engines: below both malicious thresholds, above zero.
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody(2, 0, 18))
	})
	defer srv.Close()

	report, err := client.DomainReport(context.Background(), "shady.com")
	if err != nil {
		t.Fatal(err)
	}
	if report.Verdict != signal.VerdictSuspicious {
		t.Errorf("verdict = %s, want suspicious", report.Verdict)
	}
	if report.MaliciousCount != 2 {
		t.Errorf("maliciousCount = %d, want 2", report.MaliciousCount)
	}
}

func TestDomainReportThreeMaliciousEnginesTrip(t *testing.T) {
	// malicious-count >= 3 is enough even with positives < 5.
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody(3, 0, 30))
	})
	defer srv.Close()

	report, err := client.DomainReport(context.Background(), "evil.com")
	if err != nil {
		t.Fatal(err)
	}
	if report.Verdict != signal.VerdictMalicious {
		t.Errorf("verdict = %s, want malicious", report.Verdict)
	}
}

func TestDomainReportClean(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, analysisBody(0, 0, 40))
	})
	defer srv.Close()

	report, err := client.DomainReport(context.Background(), "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if report.Verdict != signal.VerdictClean {
		t.Errorf("verdict = %s, want clean", report.Verdict)
	}
}

func TestDomainReportServerErrorFails(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer srv.Close()

	if _, err := client.DomainReport(context.Background(), "example.com"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestDomainReportSendsAPIKey(t *testing.T) {
	var gotKey string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-apikey")
		fmt.Fprint(w, analysisBody(0, 0, 1))
	})
	defer srv.Close()

	if _, err := client.DomainReport(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	if gotKey != "test-key" {
		t.Errorf("x-apikey = %q, want test-key", gotKey)
	}
}

func TestProviderUnconfigured(t *testing.T) {
	p := NewProvider(NewClient(Config{}))

	_, err := p.Check(context.Background(), entity.Entity{Normalized: "example.com", Type: entity.TypeDomain})
	if !errors.Is(err, signal.ErrUnconfigured) {
		t.Errorf("err = %v, want ErrUnconfigured", err)
	}
}

func TestProviderAppliesToDomainsOnly(t *testing.T) {
	p := NewProvider(nil)
	if !p.AppliesTo(entity.TypeDomain) {
		t.Error("should apply to domains")
	}
	for _, typ := range []entity.Type{entity.TypeAddress, entity.TypeTwitter, entity.TypeEmail} {
		if p.AppliesTo(typ) {
			t.Errorf("should not apply to %s", typ)
		}
	}
}

func TestProviderCachesReports(t *testing.T) {
	var calls atomic.Int32
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, analysisBody(0, 1, 20))
	})
	defer srv.Close()

	p := NewProvider(client, WithCacheTTL(time.Minute))
	e := entity.Entity{Normalized: "shady.com", Type: entity.TypeDomain}

	for i := 0; i < 3; i++ {
		res, err := p.Check(context.Background(), e)
		if err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
		if res.(*signal.URLScanResult).Verdict != signal.VerdictSuspicious {
			t.Errorf("Check %d verdict = %s", i, res.(*signal.URLScanResult).Verdict)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (cached)", calls.Load())
	}
}

func TestProviderCircuitOpensAfterFailures(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	p := NewProvider(client, WithBreaker(circuitbreaker.New(2, time.Minute)))
	e := entity.Entity{Normalized: "example.com", Type: entity.TypeDomain}

	for i := 0; i < 2; i++ {
		if _, err := p.Check(context.Background(), e); err == nil {
			t.Fatalf("Check %d: expected upstream error", i)
		}
	}

	_, err := p.Check(context.Background(), e)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}
