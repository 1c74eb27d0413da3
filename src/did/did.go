package did

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedDid         = errors.New("malformed did")
	ErrUnsupportedDidScheme = errors.New("unsupported did scheme")
	ErrDidNotFound          = errors.New("did not found")
)

// DID is a decentralized identifier of the form "name.suffix", where the
// suffix selects the resolution scheme (e.g. "vitalik.eth", "satoshi.bit").
type DID string

// Account is the concrete (coin type, address) pair a DID resolves to at a
// pinned snapshot.
type Account struct {
	CoinType uint32 `json:"coin_type"`
	Address  string `json:"address"`
}

// Parse validates the basic name.suffix shape. Scheme support is checked by
// the resolver registry, not here.
func Parse(s string) (DID, error) {
	name, suffix, ok := strings.Cut(s, ".")
	if !ok || name == "" || suffix == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedDid, s)
	}
	return DID(s), nil
}

// Suffix returns the scheme suffix, i.e. the part after the last dot.
func (d DID) Suffix() string {
	i := strings.LastIndex(string(d), ".")
	if i < 0 {
		return ""
	}
	return string(d)[i+1:]
}

// IsSubDidOf reports whether d is a sub-DID of parent, e.g. "a.b.bit" is a
// sub-DID of "b.bit".
func (d DID) IsSubDidOf(parent DID) bool {
	return strings.HasSuffix(string(d), "."+string(parent)) && len(d) > len(parent)+1
}
