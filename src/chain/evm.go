package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
)

// EVM resolves snapshots and balances on an Ethereum-compatible chain.
type EVM struct {
	client *ethclient.Client
}

func DialEVM(url string) (*EVM, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return &EVM{client: client}, nil
}

func (e *EVM) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	header, err := e.client.HeaderByNumber(ctx, big.NewInt(rpc.FinalizedBlockNumber.Int64()))
	if err != nil {
		return "", fmt.Errorf("%w: finalized header: %v", ErrChainUnavailable, err)
	}
	return Snapshot(header.Number.String()), nil
}

func (e *EVM) SnapshotTimestamp(ctx context.Context, snapshot Snapshot) (time.Time, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return time.Time{}, err
	}
	header, err := e.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: header %d: %v", ErrChainUnavailable, number, err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

func (e *EVM) NativeBalance(ctx context.Context, address string, snapshot Snapshot) (decimal.Decimal, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return decimal.Zero, err
	}
	wei, err := e.client.BalanceAt(ctx, common.HexToAddress(address), new(big.Int).SetUint64(number))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: balance of %s: %v", ErrChainUnavailable, address, err)
	}
	return decimal.NewFromBigInt(wei, -18), nil
}

var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

func (e *EVM) ERC20Balance(ctx context.Context, token, address string, snapshot Snapshot, decimals int32) (decimal.Decimal, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return decimal.Zero, err
	}
	contract := common.HexToAddress(token)
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)...)
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, new(big.Int).SetUint64(number))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: erc20 %s: %v", ErrChainUnavailable, token, err)
	}
	if len(out) < 32 {
		return decimal.Zero, fmt.Errorf("erc20 %s: short return %d bytes", token, len(out))
	}
	return decimal.NewFromBigInt(new(big.Int).SetBytes(out[:32]), -decimals), nil
}

// Call executes a read-only contract call pinned at a snapshot. Used by the
// ENS resolution path.
func (e *EVM) Call(ctx context.Context, to common.Address, data []byte, snapshot Snapshot) ([]byte, error) {
	number, err := snapshot.Uint64()
	if err != nil {
		return nil, err
	}
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrChainUnavailable, to.Hex(), err)
	}
	return out, nil
}
