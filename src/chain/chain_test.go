package chain

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotUint64(t *testing.T) {
	n, err := Snapshot("18000000").Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(18000000), n)

	for _, s := range []Snapshot{"", "abc", "-1", "1.5", "0x10"} {
		_, err := s.Uint64()
		assert.Error(t, err, "snapshot %q", s)
	}
}

func TestSnapshotSetGet(t *testing.T) {
	set := SnapshotSet{
		CoinTypeEthereum: "18000000",
		CoinTypeCKB:      "",
	}

	snap, err := set.Get(CoinTypeEthereum)
	require.NoError(t, err)
	assert.Equal(t, Snapshot("18000000"), snap)

	// Absent and empty entries are the same thing.
	_, err = set.Get(CoinTypePolkadot)
	assert.ErrorIs(t, err, ErrMissingSnapshot)
	_, err = set.Get(CoinTypeCKB)
	assert.ErrorIs(t, err, ErrMissingSnapshot)
}

func TestSystemAccountStorageKey(t *testing.T) {
	// The System.Account pallet prefix is a fixed, well-known value.
	prefix := append(twox128([]byte("System")), twox128([]byte("Account"))...)
	assert.Equal(t,
		"26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9",
		hex.EncodeToString(prefix))

	account, err := ss58AccountID("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	require.NoError(t, err)
	assert.Equal(t,
		"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		hex.EncodeToString(account))

	// Blake2_128Concat appends the raw key after its 16-byte hash, so the
	// full key ends with the account ID itself.
	hashed := blake2128Concat(account)
	assert.Len(t, hashed, 16+32)
	assert.Equal(t, account, hashed[16:])

	_, err = ss58AccountID("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	assert.Error(t, err)
}

func TestScaleU128(t *testing.T) {
	raw, err := hex.DecodeString("0010a5d4e80000000000000000000000")
	require.NoError(t, err)
	// 1_000_000_000_000 planck is 100 DOT.
	free := decimal.NewFromBigInt(scaleU128(raw), -dotDecimals)
	assert.True(t, free.Equal(decimal.NewFromInt(100)), free.String())
}

type stubResolver struct {
	latest Snapshot
	ts     time.Time
}

func (s *stubResolver) LatestSnapshot(context.Context) (Snapshot, error) { return s.latest, nil }
func (s *stubResolver) SnapshotTimestamp(context.Context, Snapshot) (time.Time, error) {
	return s.ts, nil
}

type stubBalances struct {
	native decimal.Decimal
}

func (s *stubBalances) NativeBalance(context.Context, string, Snapshot) (decimal.Decimal, error) {
	return s.native, nil
}

func (s *stubBalances) ERC20Balance(context.Context, string, string, Snapshot, int32) (decimal.Decimal, error) {
	return s.native.Mul(decimal.NewFromInt(2)), nil
}

func TestRegistryDispatch(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	registry := NewRegistry()
	registry.Register(CoinTypeEthereum, &stubResolver{latest: "100", ts: now})
	registry.RegisterBalances(CoinTypeEthereum, &stubBalances{native: decimal.RequireFromString("1.5")})

	ctx := context.Background()

	snap, err := registry.LatestSnapshot(ctx, CoinTypeEthereum)
	require.NoError(t, err)
	assert.Equal(t, Snapshot("100"), snap)

	ts, err := registry.SnapshotTimestamp(ctx, CoinTypeEthereum, "100")
	require.NoError(t, err)
	assert.True(t, ts.Equal(now))

	balance, err := registry.NativeBalance(ctx, CoinTypeEthereum, "0xabc", "100")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1.5")))

	_, err = registry.LatestSnapshot(ctx, CoinTypePolkadot)
	assert.ErrorIs(t, err, ErrUnsupportedCoinType)
	_, err = registry.NativeBalance(ctx, CoinTypePolkadot, "addr", "100")
	assert.ErrorIs(t, err, ErrUnsupportedCoinType)
	_, err = registry.ERC20Balance(ctx, CoinTypePolkadot, "0xtoken", "addr", "100", 18)
	assert.ErrorIs(t, err, ErrUnsupportedCoinType)
}
