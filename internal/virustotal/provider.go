package virustotal

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chaincheck/chaincheck/internal/circuitbreaker"
	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/metrics"
	"github.com/chaincheck/chaincheck/internal/signal"
)

const (
	breakerKey      = "virustotal"
	defaultCacheTTL = 10 * time.Minute
	providerTimeout = 8 * time.Second
)

// ErrCircuitOpen is returned while the upstream is considered down.
var ErrCircuitOpen = errors.New("virustotal: circuit open")

// Provider exposes VirusTotal lookups as the url_scan signal. Reports are
// cached per domain with at most one upstream fetch in flight per key.
type Provider struct {
	client  *Client
	breaker *circuitbreaker.Breaker
	ttl     time.Duration

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedReport
}

type cachedReport struct {
	report  *Report
	expires time.Time
}

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithCacheTTL overrides the report cache TTL.
func WithCacheTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) ProviderOption {
	return func(p *Provider) {
		p.breaker = b
	}
}

// NewProvider creates the url_scan provider.
func NewProvider(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{
		client:  client,
		breaker: circuitbreaker.New(5, 30*time.Second),
		ttl:     defaultCacheTTL,
		cache:   make(map[string]cachedReport),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Kind() signal.Kind { return signal.KindURLScan }

// AppliesTo covers domains only. URL-shaped inputs have already been
// normalized to their bare domain by the classifier.
func (p *Provider) AppliesTo(t entity.Type) bool { return t == entity.TypeDomain }

func (p *Provider) Timeout() time.Duration { return providerTimeout }

// Check returns the scan signal for a domain, from cache when fresh.
func (p *Provider) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	if p.client == nil || !p.client.Configured() {
		return nil, signal.ErrUnconfigured
	}

	report, err := p.report(ctx, e.Normalized)
	if err != nil {
		return nil, err
	}

	return &signal.URLScanResult{
		Verdict:        report.Verdict,
		Positives:      report.Positives,
		Total:          report.Total,
		MaliciousCount: report.MaliciousCount,
		Engines:        report.Engines,
		Permalink:      report.Permalink,
	}, nil
}

// report serves from cache or fetches, deduplicating concurrent fetches of
// the same domain through singleflight.
func (p *Provider) report(ctx context.Context, domain string) (*Report, error) {
	p.mu.RLock()
	cached, ok := p.cache[domain]
	p.mu.RUnlock()
	if ok && time.Now().Before(cached.expires) {
		metrics.ScanCacheTotal.WithLabelValues("hit").Inc()
		return cached.report, nil
	}
	metrics.ScanCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := p.group.Do(domain, func() (any, error) {
		// Another goroutine may have filled the cache while we queued.
		p.mu.RLock()
		cached, ok := p.cache[domain]
		p.mu.RUnlock()
		if ok && time.Now().Before(cached.expires) {
			return cached.report, nil
		}

		if !p.breaker.Allow(breakerKey) {
			return nil, ErrCircuitOpen
		}

		report, err := p.client.DomainReport(ctx, domain)
		if err != nil {
			p.breaker.RecordFailure(breakerKey)
			return nil, err
		}
		p.breaker.RecordSuccess(breakerKey)

		p.mu.Lock()
		p.cache[domain] = cachedReport{report: report, expires: time.Now().Add(p.ttl)}
		p.mu.Unlock()

		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}
