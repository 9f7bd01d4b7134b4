package identity

import (
	"context"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// Provider answers identity-registry lookups for addresses.
type Provider struct {
	store Store
}

// NewProvider creates an identity signal provider.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) Kind() signal.Kind { return signal.KindIdentity }

// AppliesTo restricts identity lookups to chain addresses; other entity
// types carry their identity in the value itself.
func (p *Provider) AppliesTo(t entity.Type) bool { return t == entity.TypeAddress }

func (p *Provider) Timeout() time.Duration { return 2 * time.Second }

func (p *Provider) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	rec, err := p.store.Lookup(ctx, e.Normalized, e.Type)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &signal.IdentityResult{Found: false}, nil
	}
	return &signal.IdentityResult{
		Found:   true,
		Name:    rec.Name,
		Website: rec.Website,
		Twitter: rec.Twitter,
	}, nil
}
