package did

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renzholy/voty/src/chain"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"alice.bit", "vitalik.eth", "a.b.bit"} {
		d, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, DID(s), d)
	}
	for _, s := range []string{"", "alice", ".bit", "alice.", "."} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrMalformedDid, "input %q", s)
	}
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "bit", DID("alice.bit").Suffix())
	assert.Equal(t, "bit", DID("a.b.bit").Suffix())
	assert.Equal(t, "eth", DID("vitalik.eth").Suffix())
}

func TestIsSubDidOf(t *testing.T) {
	assert.True(t, DID("carol.dao.bit").IsSubDidOf("dao.bit"))
	assert.False(t, DID("dao.bit").IsSubDidOf("dao.bit"))
	assert.False(t, DID("notdao.bit").IsSubDidOf("dao.bit"))
	assert.False(t, DID("bit").IsSubDidOf("dao.bit"))
}

func TestDecodeSS58(t *testing.T) {
	// Well-known sr25519 dev account, generic substrate prefix.
	const addr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	const wantHex = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

	raw, err := DecodeSS58(addr)
	require.NoError(t, err)
	assert.Equal(t, wantHex, hex.EncodeToString(raw))

	// Hex form of the same key is accepted.
	raw, err = DecodeSS58("0x" + wantHex)
	require.NoError(t, err)
	assert.Equal(t, wantHex, hex.EncodeToString(raw))

	// A corrupted character breaks the checksum.
	_, err = DecodeSS58("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	assert.Error(t, err)

	_, err = DecodeSS58("0xabcd")
	assert.Error(t, err)
}

func TestDotResolveSelfCertifying(t *testing.T) {
	const addr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	dot := NewDot()

	account, err := dot.Resolve(context.Background(), DID(addr+".dot"), nil)
	require.NoError(t, err)
	assert.Equal(t, chain.CoinTypePolkadot, account.CoinType)
	assert.Equal(t, addr, account.Address)

	_, err = dot.Resolve(context.Background(), "notanaddress.dot", nil)
	assert.ErrorIs(t, err, ErrDidNotFound)
}

func TestNamehash(t *testing.T) {
	// Reference vectors from EIP-137.
	assert.Equal(t, make([]byte, 32), nodeBytes(Namehash("")))
	assert.Equal(t,
		"93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		hex.EncodeToString(nodeBytes(Namehash("eth"))))
	assert.Equal(t,
		"de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
		hex.EncodeToString(nodeBytes(Namehash("foo.eth"))))
}

func nodeBytes(node [32]byte) []byte { return node[:] }

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register("dot", NewDot())
	registry.Register("eth", NewENS(stubCaller{}))

	coinType, err := registry.SchemeCoinType("anything.dot")
	require.NoError(t, err)
	assert.Equal(t, chain.CoinTypePolkadot, coinType)

	_, err = registry.SchemeCoinType("alice.unknown")
	assert.ErrorIs(t, err, ErrUnsupportedDidScheme)

	const addr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	account, err := registry.Resolve(context.Background(), DID(addr+".dot"), chain.SnapshotSet{chain.CoinTypePolkadot: "100"})
	require.NoError(t, err)
	assert.Equal(t, addr, account.Address)

	// ENS lookups dereference the Ethereum pin; a set without it must fail
	// rather than silently read another chain's block number.
	_, err = registry.Resolve(context.Background(), "vitalik.eth", chain.SnapshotSet{chain.CoinTypePolkadot: "100"})
	assert.ErrorIs(t, err, chain.ErrMissingSnapshot)
}

type stubCaller struct{}

func (stubCaller) Call(ctx context.Context, to common.Address, data []byte, snapshot chain.Snapshot) ([]byte, error) {
	return nil, errors.New("no rpc in tests")
}

func TestDotbitResolve(t *testing.T) {
	const owner = "0x000000000000000000000000000000000000beef"

	var gotBody struct {
		Account     string `json:"account"`
		BlockNumber uint64 `json:"block_number"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody.Account, gotBody.BlockNumber = "", 0
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		switch gotBody.Account {
		case "alice.bit":
			fmt.Fprintf(w, `{"err_no":0,"data":{"account_info":{"owner_key":%q,"owner_coin_type":"60"}}}`, owner)
		case "bob.bit":
			fmt.Fprint(w, `{"err_no":0,"data":{"account_info":{"owner_key":"5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY","owner_coin_type":"354"}}}`)
		default:
			fmt.Fprint(w, `{"err_no":20007,"err_msg":"account not exist"}`)
		}
	}))
	defer server.Close()

	dotbit := NewDotbit(server.URL)
	ctx := context.Background()

	// A CKB pin travels to the indexer as the read block.
	account, err := dotbit.Resolve(ctx, "alice.bit", chain.SnapshotSet{chain.CoinTypeCKB: "9000"})
	require.NoError(t, err)
	assert.Equal(t, Account{CoinType: chain.CoinTypeEthereum, Address: owner}, account)
	assert.Equal(t, uint64(9000), gotBody.BlockNumber)

	// Without a CKB pin the indexer serves current state.
	account, err = dotbit.Resolve(ctx, "alice.bit", chain.SnapshotSet{chain.CoinTypeEthereum: "18000000"})
	require.NoError(t, err)
	assert.Equal(t, owner, account.Address)
	assert.Zero(t, gotBody.BlockNumber)

	// The owner coin type comes from the indexer, not from an assumption
	// about the owner key's chain.
	account, err = dotbit.Resolve(ctx, "bob.bit", nil)
	require.NoError(t, err)
	assert.Equal(t, chain.CoinTypePolkadot, account.CoinType)

	_, err = dotbit.Resolve(ctx, "missing.bit", nil)
	assert.ErrorIs(t, err, ErrDidNotFound)
}
