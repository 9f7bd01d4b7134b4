package listing

import (
	"context"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// Local lookups are fast; budget well under the invoker default.
const lookupTimeout = 2 * time.Second

// BlacklistProvider answers blacklist lookups as a signal provider.
type BlacklistProvider struct {
	store Store
}

// NewBlacklistProvider creates a blacklist signal provider.
func NewBlacklistProvider(store Store) *BlacklistProvider {
	return &BlacklistProvider{store: store}
}

func (p *BlacklistProvider) Kind() signal.Kind { return signal.KindBlacklist }

func (p *BlacklistProvider) AppliesTo(entity.Type) bool { return true }

func (p *BlacklistProvider) Timeout() time.Duration { return lookupTimeout }

func (p *BlacklistProvider) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	entry, err := p.store.LookupBlacklist(ctx, e.Normalized, e.Type)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &signal.BlacklistResult{Found: false}, nil
	}
	return &signal.BlacklistResult{
		Found:    true,
		Category: entry.Category,
		Source:   entry.Source,
		Reason:   entry.Reason,
	}, nil
}

// WhitelistProvider answers whitelist lookups as a signal provider.
type WhitelistProvider struct {
	store Store
}

// NewWhitelistProvider creates a whitelist signal provider.
func NewWhitelistProvider(store Store) *WhitelistProvider {
	return &WhitelistProvider{store: store}
}

func (p *WhitelistProvider) Kind() signal.Kind { return signal.KindWhitelist }

func (p *WhitelistProvider) AppliesTo(entity.Type) bool { return true }

func (p *WhitelistProvider) Timeout() time.Duration { return lookupTimeout }

func (p *WhitelistProvider) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	entry, err := p.store.LookupWhitelist(ctx, e.Normalized, e.Type)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &signal.WhitelistResult{Found: false}, nil
	}
	return &signal.WhitelistResult{
		Found:      true,
		Source:     entry.Source,
		VerifiedAt: entry.VerifiedAt,
	}, nil
}
