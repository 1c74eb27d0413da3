package schema

import (
	"errors"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
)

var ErrMissingAuthorship = errors.New("missing authorship")

// Authorship binds a document to a signed, chain-anchored identity at a
// specific point in time. Address must equal the identity resolver's result
// for (Author, {CoinType: Snapshot}) at verification time, and Signature must
// validate over the document's canonical byte form using Address.
type Authorship struct {
	Author    did.DID        `json:"author"`
	CoinType  uint32         `json:"coin_type"`
	Snapshot  chain.Snapshot `json:"snapshot"`
	Address   string         `json:"address"`
	Proof     Proof          `json:"proof"`
	Signature string         `json:"signature"` // base64
}

func (a *Authorship) Validate() error {
	if a == nil {
		return ErrMissingAuthorship
	}
	if _, err := did.Parse(string(a.Author)); err != nil {
		return err
	}
	if a.CoinType == 0 {
		return errRequired("authorship.coin_type")
	}
	if a.Snapshot == "" {
		return errRequired("authorship.snapshot")
	}
	if a.Address == "" {
		return errRequired("authorship.address")
	}
	if a.Proof == "" {
		return errRequired("authorship.proof")
	}
	if a.Signature == "" {
		return errRequired("authorship.signature")
	}
	return nil
}

// SnapshotSet returns the single-chain snapshot set authorship verification
// pins: only the author's own chain.
func (a *Authorship) SnapshotSet() chain.SnapshotSet {
	return chain.SnapshotSet{a.CoinType: a.Snapshot}
}
