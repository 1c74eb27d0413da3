package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Coin types (SLIP-0044) for the chains governance documents may pin.
const (
	CoinTypeEthereum uint32 = 60
	CoinTypeCKB      uint32 = 309
	CoinTypePolkadot uint32 = 354
	CoinTypeArweave  uint32 = 472
)

var (
	ErrChainUnavailable    = errors.New("chain unavailable")
	ErrUnsupportedCoinType = errors.New("unsupported coin type")
	ErrMissingSnapshot     = errors.New("missing snapshot")
)

// Snapshot is a pinned, finalized reference point on one chain: a block
// number for account chains, a block height for the storage chain. Kept as a
// decimal string so values survive JSON round trips without precision loss.
type Snapshot string

func (s Snapshot) Uint64() (uint64, error) {
	n, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad snapshot %q: %w", string(s), err)
	}
	return n, nil
}

// SnapshotSet collects at most one snapshot per coin type.
type SnapshotSet map[uint32]Snapshot

// Get returns the snapshot for a coin type or ErrMissingSnapshot. Every
// dereference of a snapshot goes through here so evaluation touches exactly
// the coin types it declares.
func (s SnapshotSet) Get(coinType uint32) (Snapshot, error) {
	snap, ok := s[coinType]
	if !ok || snap == "" {
		return "", fmt.Errorf("%w: coin type %d", ErrMissingSnapshot, coinType)
	}
	return snap, nil
}

// Resolver answers snapshot queries for a single chain.
type Resolver interface {
	// LatestSnapshot returns the chain's most recent finalized block.
	LatestSnapshot(ctx context.Context) (Snapshot, error)
	// SnapshotTimestamp maps a snapshot to wall-clock time. Monotonic with
	// snapshot ordering on the same chain.
	SnapshotTimestamp(ctx context.Context, snapshot Snapshot) (time.Time, error)
}

// Balances answers balance queries on a single chain.
type Balances interface {
	NativeBalance(ctx context.Context, address string, snapshot Snapshot) (decimal.Decimal, error)
	ERC20Balance(ctx context.Context, token, address string, snapshot Snapshot, decimals int32) (decimal.Decimal, error)
}

// Registry routes snapshot and balance queries by coin type.
type Registry struct {
	resolvers map[uint32]Resolver
	balances  map[uint32]Balances
}

func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[uint32]Resolver),
		balances:  make(map[uint32]Balances),
	}
}

func (r *Registry) Register(coinType uint32, resolver Resolver) {
	r.resolvers[coinType] = resolver
}

func (r *Registry) RegisterBalances(coinType uint32, balances Balances) {
	r.balances[coinType] = balances
}

func (r *Registry) resolver(coinType uint32) (Resolver, error) {
	resolver, ok := r.resolvers[coinType]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCoinType, coinType)
	}
	return resolver, nil
}

func (r *Registry) LatestSnapshot(ctx context.Context, coinType uint32) (Snapshot, error) {
	resolver, err := r.resolver(coinType)
	if err != nil {
		return "", err
	}
	return resolver.LatestSnapshot(ctx)
}

func (r *Registry) SnapshotTimestamp(ctx context.Context, coinType uint32, snapshot Snapshot) (time.Time, error) {
	resolver, err := r.resolver(coinType)
	if err != nil {
		return time.Time{}, err
	}
	return resolver.SnapshotTimestamp(ctx, snapshot)
}

func (r *Registry) NativeBalance(ctx context.Context, coinType uint32, address string, snapshot Snapshot) (decimal.Decimal, error) {
	balances, ok := r.balances[coinType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnsupportedCoinType, coinType)
	}
	return balances.NativeBalance(ctx, address, snapshot)
}

func (r *Registry) ERC20Balance(ctx context.Context, coinType uint32, token, address string, snapshot Snapshot, decimals int32) (decimal.Decimal, error) {
	balances, ok := r.balances[coinType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnsupportedCoinType, coinType)
	}
	return balances.ERC20Balance(ctx, token, address, snapshot, decimals)
}
