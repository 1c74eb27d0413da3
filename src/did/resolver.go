package did

import (
	"context"
	"fmt"

	"github.com/renzholy/voty/src/chain"
)

// Resolver resolves a DID to a concrete account, pinned to the snapshot of
// the DID's own chain. Re-resolving with a later snapshot may yield a
// different owner, which is why verification always pins the snapshot used.
type Resolver interface {
	Resolve(ctx context.Context, d DID, snapshots chain.SnapshotSet) (Account, error)
	// SchemeCoinType returns the coin type whose snapshot resolution of d
	// dereferences.
	SchemeCoinType(d DID) (uint32, error)
}

// SchemeResolver resolves one naming scheme, identified by a DID suffix.
// Each scheme takes the full snapshot set and dereferences only the chains
// it needs: rule evaluation always supplies the scheme chain's pin, while
// authorship envelopes carry only the author's own chain.
type SchemeResolver interface {
	// CoinType is the chain the scheme's ownership records live on.
	CoinType() uint32
	Resolve(ctx context.Context, d DID, snapshots chain.SnapshotSet) (Account, error)
}

// Registry dispatches resolution by DID suffix.
type Registry struct {
	schemes map[string]SchemeResolver
}

func NewRegistry() *Registry {
	return &Registry{schemes: make(map[string]SchemeResolver)}
}

func (r *Registry) Register(suffix string, scheme SchemeResolver) {
	r.schemes[suffix] = scheme
}

func (r *Registry) scheme(d DID) (SchemeResolver, error) {
	scheme, ok := r.schemes[d.Suffix()]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedDidScheme, d.Suffix())
	}
	return scheme, nil
}

func (r *Registry) SchemeCoinType(d DID) (uint32, error) {
	scheme, err := r.scheme(d)
	if err != nil {
		return 0, err
	}
	return scheme.CoinType(), nil
}

func (r *Registry) Resolve(ctx context.Context, d DID, snapshots chain.SnapshotSet) (Account, error) {
	scheme, err := r.scheme(d)
	if err != nil {
		return Account{}, err
	}
	return scheme.Resolve(ctx, d, snapshots)
}
