// Package phase derives a governance document's lifecycle stage from its
// anchored creation timestamp and the fixed durations of its group. No state
// is stored beyond the cached boundary timestamps; recomputation is O(1) and
// side-effect-free on every read.
package phase

import (
	"time"

	"github.com/renzholy/voty/src/schema"
)

type Phase string

const (
	Confirming Phase = "confirming" // anchor timestamp not yet known
	Announcing Phase = "announcing"
	Proposing  Phase = "proposing" // grants only
	Voting     Phase = "voting"
	Ended      Phase = "ended"
)

// Boundaries holds the cached end instants of each stage. Each boundary is
// the exclusive end of its phase: a document is announcing for
// t in [TS, TSAnnouncing), voting for t in [previous boundary, TSVoting),
// ended from TSVoting on. Nil boundaries mean the anchor timestamp is not
// yet resolved.
type Boundaries struct {
	TS           *time.Time
	TSAnnouncing *time.Time
	TSProposing  *time.Time // nil for single-stage documents
	TSVoting     *time.Time
}

// At computes the phase at an observation instant. Boundary comparisons are
// inclusive-left, exclusive-right.
func (b Boundaries) At(now time.Time) Phase {
	if b.TS == nil || b.TSAnnouncing == nil || b.TSVoting == nil {
		return Confirming
	}
	if now.Before(*b.TSAnnouncing) {
		return Announcing
	}
	if b.TSProposing != nil && now.Before(*b.TSProposing) {
		return Proposing
	}
	if now.Before(*b.TSVoting) {
		return Voting
	}
	return Ended
}

// ForGroupProposal computes boundaries for a two-stage document from its
// anchor timestamp. Deterministic, so concurrent fills racing on the same
// anchor write identical values.
func ForGroupProposal(ts time.Time, duration schema.GroupDuration) Boundaries {
	announcing := ts.Add(time.Duration(duration.Announcing) * time.Second)
	voting := announcing.Add(time.Duration(duration.Voting) * time.Second)
	return Boundaries{TS: &ts, TSAnnouncing: &announcing, TSVoting: &voting}
}

// ForGrant computes boundaries for the three-stage grant lifecycle.
func ForGrant(ts time.Time, duration schema.GrantDuration) Boundaries {
	announcing := ts.Add(time.Duration(duration.Announcing) * time.Second)
	proposing := announcing.Add(time.Duration(duration.Proposing) * time.Second)
	voting := proposing.Add(time.Duration(duration.Voting) * time.Second)
	return Boundaries{TS: &ts, TSAnnouncing: &announcing, TSProposing: &proposing, TSVoting: &voting}
}
