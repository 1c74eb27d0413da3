package authorship

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/schema"
)

// fakeResolver maps DIDs to fixed accounts regardless of snapshots.
type fakeResolver struct {
	accounts map[did.DID]did.Account
}

func (f fakeResolver) Resolve(ctx context.Context, d did.DID, snapshots chain.SnapshotSet) (did.Account, error) {
	account, ok := f.accounts[d]
	if !ok {
		return did.Account{}, did.ErrDidNotFound
	}
	return account, nil
}

func signedCommunity(t *testing.T, signer *Signer) *schema.Community {
	t.Helper()
	doc := &schema.Community{
		ID:   "dao.bit",
		Name: "Test DAO",
		Authorship: schema.Authorship{
			Author:   "dao.bit",
			CoinType: chain.CoinTypeEthereum,
			Snapshot: "1000",
			Address:  signer.Address(),
		},
	}
	proof, err := schema.ComputeProof(doc)
	require.NoError(t, err)
	doc.Authorship.Proof = proof

	signature, err := signer.Sign(schema.TypeCommunity, proof)
	require.NoError(t, err)
	doc.Authorship.Signature = signature
	return doc
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := NewSigner(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	return signer
}

func TestVerifyRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	doc := signedCommunity(t, signer)

	verifier := NewVerifier(fakeResolver{accounts: map[did.DID]did.Account{
		"dao.bit": {CoinType: chain.CoinTypeEthereum, Address: signer.Address()},
	}})
	assert.NoError(t, verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship))
}

func TestVerifyDetectsContentMutation(t *testing.T) {
	signer := newTestSigner(t)
	doc := signedCommunity(t, signer)
	doc.Name = "Another DAO"

	verifier := NewVerifier(fakeResolver{accounts: map[did.DID]did.Account{
		"dao.bit": {CoinType: chain.CoinTypeEthereum, Address: signer.Address()},
	}})
	err := verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship)
	assert.ErrorIs(t, err, schema.ErrProofMismatch)
}

func TestVerifyRejectsWrongDocumentType(t *testing.T) {
	signer := newTestSigner(t)
	doc := signedCommunity(t, signer)

	verifier := NewVerifier(fakeResolver{accounts: map[did.DID]did.Account{
		"dao.bit": {CoinType: chain.CoinTypeEthereum, Address: signer.Address()},
	}})
	// A community signature replayed as a grant signature must not verify.
	err := verifier.Verify(context.Background(), doc, schema.TypeGrant, &doc.Authorship)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsForeignSigner(t *testing.T) {
	signer := newTestSigner(t)
	mallory := newTestSigner(t)
	doc := signedCommunity(t, signer)

	signature, err := mallory.Sign(schema.TypeCommunity, doc.Authorship.Proof)
	require.NoError(t, err)
	doc.Authorship.Signature = signature

	verifier := NewVerifier(fakeResolver{accounts: map[did.DID]did.Account{
		"dao.bit": {CoinType: chain.CoinTypeEthereum, Address: signer.Address()},
	}})
	err = verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsStaleBinding(t *testing.T) {
	signer := newTestSigner(t)
	doc := signedCommunity(t, signer)

	// The DID now resolves to someone else, e.g. the name changed hands
	// after the pinned snapshot claimed.
	verifier := NewVerifier(fakeResolver{accounts: map[did.DID]did.Account{
		"dao.bit": {CoinType: chain.CoinTypeEthereum, Address: "0x00000000000000000000000000000000000000bb"},
	}})
	err := verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship)
	assert.ErrorIs(t, err, ErrAuthorshipMismatch)
}

func TestVerifyDotbitAuthor(t *testing.T) {
	signer := newTestSigner(t)

	// A real resolver registry backed by a dotbit indexer that records the
	// signer's address as the current owner of dao.bit. The envelope pins
	// the author's own chain only, which is all a wallet knows at signing
	// time.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"err_no":0,"data":{"account_info":{"owner_key":%q,"owner_coin_type":"60"}}}`, signer.Address())
	}))
	defer server.Close()

	registry := did.NewRegistry()
	registry.Register("bit", did.NewDotbit(server.URL))
	verifier := NewVerifier(registry)

	doc := signedCommunity(t, signer)
	assert.NoError(t, verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship))
}

func TestVerifyDotbitAuthorOwnedElsewhere(t *testing.T) {
	signer := newTestSigner(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"err_no":0,"data":{"account_info":{"owner_key":"0x00000000000000000000000000000000000000cc","owner_coin_type":"60"}}}`)
	}))
	defer server.Close()

	registry := did.NewRegistry()
	registry.Register("bit", did.NewDotbit(server.URL))
	verifier := NewVerifier(registry)

	doc := signedCommunity(t, signer)
	err := verifier.Verify(context.Background(), doc, schema.TypeCommunity, &doc.Authorship)
	assert.ErrorIs(t, err, ErrAuthorshipMismatch)
}

func TestVerifyMessageRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	message := []byte("login challenge 42")

	encoded, err := signer.SignMessage(message)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.NoError(t, VerifyMessage(chain.CoinTypeEthereum, signer.Address(), raw, message))
	assert.Error(t, VerifyMessage(chain.CoinTypeEthereum, signer.Address(), raw, []byte("other")))
}
