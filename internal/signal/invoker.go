package signal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/metrics"
	"github.com/chaincheck/chaincheck/internal/traces"
)

// DefaultProviderTimeout bounds providers that don't declare their own.
const DefaultProviderTimeout = 5 * time.Second

// Invoker fans out one check to all applicable providers concurrently and
// joins on completion. A provider that fails, panics, or times out simply
// contributes no entry — it never aborts its siblings or the check.
type Invoker struct {
	providers      []Provider
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// InvokerOption configures the invoker.
type InvokerOption func(*Invoker)

// WithDefaultTimeout overrides the default per-provider timeout.
func WithDefaultTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		if d > 0 {
			inv.defaultTimeout = d
		}
	}
}

// WithLogger sets the invoker's logger.
func WithLogger(logger *slog.Logger) InvokerOption {
	return func(inv *Invoker) {
		inv.logger = logger
	}
}

// NewInvoker creates an invoker over a fixed provider set.
func NewInvoker(providers []Provider, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		providers:      providers,
		defaultTimeout: DefaultProviderTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// RunAll invokes every provider applicable to the entity's type concurrently,
// each under its own timeout, and waits for all of them to settle. The
// returned mapping is partial: absent kinds mean "no opinion", not "safe".
//
// If ctx is cancelled, in-flight provider calls are cancelled through their
// derived contexts and RunAll returns whatever had already completed.
func (inv *Invoker) RunAll(ctx context.Context, e entity.Entity) map[Kind]Result {
	results := make(map[Kind]Result, len(inv.providers))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, p := range inv.providers {
		if !p.AppliesTo(e.Type) {
			continue
		}

		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			res, err := inv.invokeOne(ctx, p, e)
			if err != nil || res == nil {
				return
			}

			mu.Lock()
			results[p.Kind()] = res
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return results
}

// invokeOne runs a single provider under its timeout with panic isolation.
func (inv *Invoker) invokeOne(ctx context.Context, p Provider, e entity.Entity) (res Result, err error) {
	kind := string(p.Kind())

	timeout := p.Timeout()
	if timeout <= 0 {
		timeout = inv.defaultTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pctx, span := traces.StartSpan(pctx, "provider.check", traces.ProviderKind(kind))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ProviderLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		// A panicking provider must not take down the check.
		if r := recover(); r != nil {
			inv.logger.Error("provider panicked", "provider", kind, "panic", r)
			metrics.ProviderResultsTotal.WithLabelValues(kind, "failed").Inc()
			res, err = nil, errProviderPanic
		}
	}()

	res, err = p.Check(pctx, e)
	switch {
	case err == nil:
		metrics.ProviderResultsTotal.WithLabelValues(kind, "ok").Inc()
	case errors.Is(err, ErrUnconfigured):
		inv.logger.Debug("provider unconfigured, skipping", "provider", kind)
		metrics.ProviderResultsTotal.WithLabelValues(kind, "unconfigured").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		inv.logger.Warn("provider timed out",
			"provider", kind,
			"timeout", timeout,
			"entity_type", e.Type,
		)
		metrics.ProviderResultsTotal.WithLabelValues(kind, "timeout").Inc()
	default:
		inv.logger.Warn("provider failed",
			"provider", kind,
			"entity_type", e.Type,
			"error", err,
		)
		metrics.ProviderResultsTotal.WithLabelValues(kind, "failed").Inc()
	}
	return res, err
}

var errProviderPanic = errors.New("signal: provider panicked")
