package phase

import (
	"context"
	"time"

	"github.com/renzholy/voty/src/chain"
)

// AnchorResolver maps a permalink to the storage-network snapshot it was
// anchored in.
type AnchorResolver interface {
	SnapshotOf(ctx context.Context, permalink string) (chain.Snapshot, error)
}

// TimestampResolver maps a snapshot on one chain to wall-clock time.
type TimestampResolver interface {
	SnapshotTimestamp(ctx context.Context, coinType uint32, snapshot chain.Snapshot) (time.Time, error)
}

// Filler resolves a document's anchor timestamp: the real-world time the
// document became durable on the storage network. Resolution can fail while
// the anchor is still confirming; callers treat that as best-effort
// enrichment and retry on a later read.
type Filler struct {
	anchor AnchorResolver
	chains TimestampResolver
}

func NewFiller(anchor AnchorResolver, chains TimestampResolver) *Filler {
	return &Filler{anchor: anchor, chains: chains}
}

func (f *Filler) AnchorTime(ctx context.Context, permalink string) (time.Time, error) {
	snapshot, err := f.anchor.SnapshotOf(ctx, permalink)
	if err != nil {
		return time.Time{}, err
	}
	return f.chains.SnapshotTimestamp(ctx, chain.CoinTypeArweave, snapshot)
}
