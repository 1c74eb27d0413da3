package chain

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/OneOfOne/xxhash"
	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

// Substrate resolves snapshots and balances on a Substrate-based chain via
// its RPC endpoint. Timestamps come from the Timestamp.Now storage item and
// balances from System.Account, both read at the snapshot's block hash.
type Substrate struct {
	api *gsrpc.SubstrateAPI
}

func DialSubstrate(url string) (*Substrate, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return &Substrate{api: api}, nil
}

func (s *Substrate) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	head, err := s.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return "", fmt.Errorf("%w: finalized head: %v", ErrChainUnavailable, err)
	}
	header, err := s.api.RPC.Chain.GetHeader(head)
	if err != nil {
		return "", fmt.Errorf("%w: header: %v", ErrChainUnavailable, err)
	}
	return Snapshot(fmt.Sprintf("%d", header.Number)), nil
}

func (s *Substrate) SnapshotTimestamp(ctx context.Context, snapshot Snapshot) (time.Time, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return time.Time{}, err
	}
	hash, err := s.api.RPC.Chain.GetBlockHash(number)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: block hash %d: %v", ErrChainUnavailable, number, err)
	}
	key := append(twox128([]byte("Timestamp")), twox128([]byte("Now"))...)
	raw, err := s.api.RPC.State.GetStorageRaw(types.NewStorageKey(key), hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp storage: %v", ErrChainUnavailable, err)
	}
	if raw == nil || len(*raw) < 8 {
		return time.Time{}, fmt.Errorf("timestamp storage empty at block %d", number)
	}
	// SCALE-encoded u64 of milliseconds since epoch.
	millis := binary.LittleEndian.Uint64((*raw)[:8])
	return time.UnixMilli(int64(millis)).UTC(), nil
}

// dotDecimals is the planck-to-DOT scale.
const dotDecimals = 10

func (s *Substrate) NativeBalance(ctx context.Context, address string, snapshot Snapshot) (decimal.Decimal, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return decimal.Zero, err
	}
	account, err := ss58AccountID(address)
	if err != nil {
		return decimal.Zero, err
	}
	hash, err := s.api.RPC.Chain.GetBlockHash(number)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: block hash %d: %v", ErrChainUnavailable, number, err)
	}

	key := append(twox128([]byte("System")), twox128([]byte("Account"))...)
	key = append(key, blake2128Concat(account)...)
	raw, err := s.api.RPC.State.GetStorageRaw(types.NewStorageKey(key), hash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: account storage: %v", ErrChainUnavailable, err)
	}
	if raw == nil || len(*raw) == 0 {
		// Account never touched the chain, so owns nothing.
		return decimal.Zero, nil
	}
	// SCALE AccountInfo: nonce, consumers, providers, sufficients (u32 each),
	// then AccountData starting with the free balance as a u128.
	if len(*raw) < 32 {
		return decimal.Zero, fmt.Errorf("account storage truncated at block %d: %d bytes", number, len(*raw))
	}
	free := scaleU128((*raw)[16:32])
	return decimal.NewFromBigInt(free, -dotDecimals), nil
}

func (s *Substrate) ERC20Balance(ctx context.Context, token, address string, snapshot Snapshot, decimals int32) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("%w: no token contracts on substrate chains", ErrUnsupportedCoinType)
}

// ss58AccountID converts an SS58 address to its raw 32-byte account ID,
// verifying the blake2b checksum.
func ss58AccountID(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 35 {
		return nil, fmt.Errorf("invalid ss58 address %q", address)
	}
	checksum := blake2b.Sum512(append(append([]byte{}, []byte("SS58PRE")...), raw[:33]...))
	if !bytes.Equal(checksum[:2], raw[33:]) {
		return nil, fmt.Errorf("ss58 checksum mismatch for %q", address)
	}
	return raw[1:33], nil
}

// blake2128Concat is the Blake2_128Concat storage hasher: a 128-bit blake2b
// of the key data followed by the data itself.
func blake2128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return append(h.Sum(nil), data...)
}

// scaleU128 decodes a SCALE little-endian u128 into a big integer.
func scaleU128(raw []byte) *big.Int {
	buf := make([]byte, 16)
	for i := 0; i < 16; i++ {
		buf[i] = raw[15-i]
	}
	return new(big.Int).SetBytes(buf)
}

// twox128 is the TwoX 128-bit hash Substrate uses for storage key prefixes.
func twox128(data []byte) []byte {
	hash1 := xxhash.NewS64(0)
	hash1.Write(data)
	hash2 := xxhash.NewS64(1)
	hash2.Write(data)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:], hash1.Sum64())
	binary.LittleEndian.PutUint64(out[8:], hash2.Sum64())
	return out
}
