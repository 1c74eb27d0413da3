// Package authorship is the single trust boundary of the platform: it binds
// every governance document to a signed, chain-anchored identity at a
// specific point in time. Every other component assumes documents reaching
// it have already passed Verify.
package authorship

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/schema"
)

var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrAuthorshipMismatch = errors.New("stale or forged authorship")
)

// DidResolver is the identity collaborator the snapshot-binding check uses.
type DidResolver interface {
	Resolve(ctx context.Context, d did.DID, snapshots chain.SnapshotSet) (did.Account, error)
}

type Verifier struct {
	resolver DidResolver
}

func NewVerifier(resolver DidResolver) *Verifier {
	return &Verifier{resolver: resolver}
}

// Verify runs the three ordered trust checks. All must pass before any side
// effect; each failure keeps its own error so callers can log precisely
// while surfacing only the taxonomy category.
func (v *Verifier) Verify(ctx context.Context, document interface{}, documentType string, a *schema.Authorship) error {
	// 1. Proof: the declared content hash matches the canonical bytes.
	if err := schema.VerifyProof(document, a.Proof); err != nil {
		return err
	}

	// 2. Signature: the claimed address signed the proof-bound message.
	message := schema.SignedMessage(documentType, a.Proof)
	signature, err := base64.StdEncoding.DecodeString(a.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	switch a.CoinType {
	case chain.CoinTypePolkadot:
		err = verifySr25519(a.Address, signature, message)
	default:
		// Every other accepted coin type holds an EVM address.
		err = verifyEthereumPersonal(a.Address, signature, message)
	}
	if err != nil {
		return err
	}

	// 3. Snapshot binding: the author DID resolved to this exact account at
	// the pinned snapshot.
	resolved, err := v.resolver.Resolve(ctx, a.Author, a.SnapshotSet())
	if err != nil {
		return err
	}
	if resolved.CoinType != a.CoinType || !strings.EqualFold(resolved.Address, a.Address) {
		return ErrAuthorshipMismatch
	}
	return nil
}

// VerifyMessage checks a detached signature over an arbitrary message, for
// callers outside the document flow such as wallet login challenges. The
// same per-chain schemes apply as in Verify.
func VerifyMessage(coinType uint32, address string, signature, message []byte) error {
	if coinType == chain.CoinTypePolkadot {
		return verifySr25519(address, signature, message)
	}
	return verifyEthereumPersonal(address, signature, message)
}

// verifyEthereumPersonal recovers the signer of an EIP-191 personal message
// and requires it to equal the claimed address.
func verifyEthereumPersonal(address string, signature, message []byte) error {
	if len(signature) != 65 {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(signature))
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !strings.EqualFold(crypto.PubkeyToAddress(*pub).Hex(), address) {
		return ErrInvalidSignature
	}
	return nil
}

// verifySr25519 validates a Schnorr signature by an SS58 address under the
// standard substrate signing context.
func verifySr25519(address string, signature, message []byte) error {
	pubKeyBytes, err := did.DecodeSS58(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(signature) != 64 {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(signature))
	}

	var pkRaw [32]byte
	copy(pkRaw[:], pubKeyBytes)
	var sigRaw [64]byte
	copy(sigRaw[:], signature)

	var pk schnorrkel.PublicKey
	if err := pk.Decode(pkRaw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var sig schnorrkel.Signature
	if err := sig.Decode(sigRaw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	signingCtx := schnorrkel.NewSigningContext([]byte("substrate"), message)
	valid, err := pk.Verify(&sig, signingCtx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !valid {
		return ErrInvalidSignature
	}
	return nil
}
