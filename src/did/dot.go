package did

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/renzholy/voty/src/chain"
)

// Dot resolves ".dot" identifiers. The name part is itself a checksum-valid
// SS58 address, so resolution is self-certifying: no ownership registry to
// consult, only the address encoding to verify, and no snapshot to
// dereference.
type Dot struct{}

func NewDot() *Dot { return &Dot{} }

func (d *Dot) CoinType() uint32 { return chain.CoinTypePolkadot }

func (d *Dot) Resolve(ctx context.Context, id DID, _ chain.SnapshotSet) (Account, error) {
	name := strings.TrimSuffix(string(id), ".dot")
	if _, err := DecodeSS58(name); err != nil {
		return Account{}, fmt.Errorf("%w: %s: %v", ErrDidNotFound, id, err)
	}
	return Account{CoinType: chain.CoinTypePolkadot, Address: name}, nil
}

// ss58Prefix is the checksum preimage prefix defined by the SS58 format.
var ss58Prefix = []byte("SS58PRE")

// DecodeSS58 converts an SS58-formatted address to the raw 32-byte public
// key, verifying the blake2b checksum. Hex-formatted 32-byte keys ("0x...")
// are accepted as well.
func DecodeSS58(addr string) ([]byte, error) {
	if strings.HasPrefix(addr, "0x") {
		raw, err := hex.DecodeString(addr[2:])
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("invalid hex public key")
		}
		return raw, nil
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 35 {
		return nil, fmt.Errorf("invalid ss58 address")
	}

	checksum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), raw[:33]...))
	if !bytes.Equal(checksum[:2], raw[33:]) {
		return nil, fmt.Errorf("ss58 checksum mismatch")
	}
	return raw[1:33], nil // drop 1-byte prefix, keep 32-byte public key
}
