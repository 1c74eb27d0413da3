package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommunity() *Community {
	return &Community{
		ID:   "dao.bit",
		Name: "Test DAO",
		Authorship: Authorship{
			Author:    "dao.bit",
			CoinType:  60,
			Snapshot:  "1000",
			Address:   "0x00000000000000000000000000000000000000aa",
			Proof:     "1:placeholder",
			Signature: "cGxhY2Vob2xkZXI=",
		},
	}
}

func TestCanonicalBytesStripsProofAndSignature(t *testing.T) {
	canonical, err := CanonicalBytes(testCommunity())
	require.NoError(t, err)
	assert.NotContains(t, string(canonical), "placeholder")
	assert.Contains(t, string(canonical), `"author":"dao.bit"`)
}

func TestCanonicalBytesKeyOrderIndependent(t *testing.T) {
	a := json.RawMessage(`{"id":"dao.bit","name":"Test","authorship":{"author":"dao.bit","coin_type":60}}`)
	b := json.RawMessage(`{"authorship":{"coin_type":60,"author":"dao.bit"},"name":"Test","id":"dao.bit"}`)

	ca, err := CanonicalBytes(a)
	require.NoError(t, err)
	cb, err := CanonicalBytes(b)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestProofRoundTrip(t *testing.T) {
	doc := testCommunity()
	proof, err := ComputeProof(doc)
	require.NoError(t, err)
	assert.Equal(t, "1", proof.Version())

	doc.Authorship.Proof = proof
	assert.NoError(t, VerifyProof(doc, proof))

	// The proof stays stable when only proof or signature change, since
	// they are stripped before hashing.
	doc.Authorship.Signature = "b3RoZXI="
	assert.NoError(t, VerifyProof(doc, proof))

	// Any content byte change breaks it.
	doc.Name = "Test DAO!"
	assert.ErrorIs(t, VerifyProof(doc, proof), ErrProofMismatch)
}

func TestVerifyProofVersion(t *testing.T) {
	err := VerifyProof(testCommunity(), Proof("2:whatever"))
	assert.ErrorIs(t, err, ErrMalformedProof)
}

func TestSignedMessageBindsDocumentType(t *testing.T) {
	proof := Proof("1:abc")
	vote := SignedMessage(TypeVote, proof)
	grant := SignedMessage(TypeGrant, proof)
	assert.NotEqual(t, vote, grant)
	assert.Equal(t, "voty governance: signing vote with proof 1:abc", string(vote))
}
