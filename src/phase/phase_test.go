package phase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/schema"
)

var anchor = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAtConfirmingWhenUnfilled(t *testing.T) {
	assert.Equal(t, Confirming, Boundaries{}.At(anchor))
}

func TestGroupProposalBoundaries(t *testing.T) {
	b := ForGroupProposal(anchor, schema.GroupDuration{Announcing: 3600, Voting: 7200})

	assert.Equal(t, Announcing, b.At(anchor))
	assert.Equal(t, Announcing, b.At(anchor.Add(3599*time.Second)))
	// Boundaries are exclusive ends: the boundary instant belongs to the
	// next phase.
	assert.Equal(t, Voting, b.At(anchor.Add(3600*time.Second)))
	assert.Equal(t, Voting, b.At(anchor.Add(10799*time.Second)))
	assert.Equal(t, Ended, b.At(anchor.Add(10800*time.Second)))
	assert.Equal(t, Ended, b.At(anchor.Add(time.Hour*24*365)))
}

func TestGrantBoundariesIncludeProposing(t *testing.T) {
	b := ForGrant(anchor, schema.GrantDuration{Announcing: 60, Proposing: 60, Voting: 60})

	assert.Equal(t, Announcing, b.At(anchor))
	assert.Equal(t, Proposing, b.At(anchor.Add(60*time.Second)))
	assert.Equal(t, Voting, b.At(anchor.Add(120*time.Second)))
	assert.Equal(t, Ended, b.At(anchor.Add(180*time.Second)))
}

func TestBoundariesDeterministic(t *testing.T) {
	duration := schema.GroupDuration{Announcing: 3600, Voting: 7200}
	a := ForGroupProposal(anchor, duration)
	b := ForGroupProposal(anchor, duration)
	assert.Equal(t, *a.TSVoting, *b.TSVoting, "same anchor always yields the same boundaries")
}

type fakeAnchor struct {
	snapshots map[string]chain.Snapshot
}

func (f fakeAnchor) SnapshotOf(ctx context.Context, permalink string) (chain.Snapshot, error) {
	snapshot, ok := f.snapshots[permalink]
	if !ok {
		return "", chain.ErrChainUnavailable
	}
	return snapshot, nil
}

type fakeTimestamps struct {
	times map[chain.Snapshot]time.Time
}

func (f fakeTimestamps) SnapshotTimestamp(ctx context.Context, coinType uint32, snapshot chain.Snapshot) (time.Time, error) {
	ts, ok := f.times[snapshot]
	if !ok {
		return time.Time{}, chain.ErrChainUnavailable
	}
	return ts, nil
}

func TestFillerAnchorTime(t *testing.T) {
	filler := NewFiller(
		fakeAnchor{snapshots: map[string]chain.Snapshot{"ar://doc": "1200"}},
		fakeTimestamps{times: map[chain.Snapshot]time.Time{"1200": anchor}},
	)

	ts, err := filler.AnchorTime(context.Background(), "ar://doc")
	require.NoError(t, err)
	assert.True(t, ts.Equal(anchor))

	_, err = filler.AnchorTime(context.Background(), "ar://unconfirmed")
	assert.ErrorIs(t, err, chain.ErrChainUnavailable)
}
