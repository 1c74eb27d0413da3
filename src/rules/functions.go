package rules

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
)

// booleanFunction is an eligibility leaf bound to its arguments. The
// requiredCoinTypes set is static per instantiation; resolves marks leaves
// that additionally dereference the snapshot of the evaluated DID's own
// scheme chain.
type booleanFunction struct {
	requiredCoinTypes []uint32
	resolves          bool
	execute           func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (bool, error)
}

type decimalFunction struct {
	requiredCoinTypes []uint32
	resolves          bool
	execute           func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (decimal.Decimal, error)
}

var booleanFunctions = map[string]func(args []string) (*booleanFunction, error){
	"is_did":        newIsDid,
	"is_sub_did_of": newIsSubDidOf,
}

var decimalFunctions = map[string]func(args []string) (*decimalFunction, error){
	"prefixes_dot_suffix_fixed_power": newPrefixesDotSuffixFixedPower,
	"erc20_balance":                   newERC20Balance,
	"native_balance":                  newNativeBalance,
}

func newBooleanFunction(name string, args []string) (*booleanFunction, error) {
	ctor, ok := booleanFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return ctor(args)
}

func newDecimalFunction(name string, args []string) (*decimalFunction, error) {
	ctor, ok := decimalFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return ctor(args)
}

// is_did(allowed...) — true when the evaluated DID is one of the arguments.
func newIsDid(args []string) (*booleanFunction, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("is_did: at least one did required")
	}
	allowed := make(map[did.DID]bool, len(args))
	for _, arg := range args {
		d, err := did.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("is_did: %w", err)
		}
		allowed[d] = true
	}
	return &booleanFunction{
		execute: func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (bool, error) {
			return allowed[d], nil
		},
	}, nil
}

// is_sub_did_of(parents...) — true when the evaluated DID is a sub-DID of
// any argument.
func newIsSubDidOf(args []string) (*booleanFunction, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("is_sub_did_of: at least one parent did required")
	}
	parents := make([]did.DID, 0, len(args))
	for _, arg := range args {
		d, err := did.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("is_sub_did_of: %w", err)
		}
		parents = append(parents, d)
	}
	return &booleanFunction{
		execute: func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (bool, error) {
			for _, parent := range parents {
				if d.IsSubDidOf(parent) {
					return true, nil
				}
			}
			return false, nil
		},
	}, nil
}

// prefixes_dot_suffix_fixed_power(power, parents...) — a fixed weight for
// members under the given parent DIDs, zero for everyone else.
func newPrefixesDotSuffixFixedPower(args []string) (*decimalFunction, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("prefixes_dot_suffix_fixed_power: power and at least one parent did required")
	}
	power, err := decimal.NewFromString(args[0])
	if err != nil {
		return nil, fmt.Errorf("prefixes_dot_suffix_fixed_power: bad power %q: %v", args[0], err)
	}
	if power.IsNegative() {
		return nil, fmt.Errorf("prefixes_dot_suffix_fixed_power: negative power")
	}
	parents := make([]did.DID, 0, len(args)-1)
	for _, arg := range args[1:] {
		d, err := did.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("prefixes_dot_suffix_fixed_power: %w", err)
		}
		parents = append(parents, d)
	}
	return &decimalFunction{
		execute: func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (decimal.Decimal, error) {
			for _, parent := range parents {
				if d == parent || d.IsSubDidOf(parent) {
					return power, nil
				}
			}
			return decimal.Zero, nil
		},
	}, nil
}

// erc20_balance(coin_type, token, decimals) — the evaluated DID's token
// balance at the pinned snapshot of the given chain.
func newERC20Balance(args []string) (*decimalFunction, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("erc20_balance: coin_type, token and decimals required")
	}
	coinType, err := parseCoinType(args[0])
	if err != nil {
		return nil, fmt.Errorf("erc20_balance: %v", err)
	}
	token := args[1]
	decimals, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil || decimals < 0 || decimals > 77 {
		return nil, fmt.Errorf("erc20_balance: bad decimals %q", args[2])
	}
	return &decimalFunction{
		requiredCoinTypes: []uint32{coinType},
		resolves:          true,
		execute: func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (decimal.Decimal, error) {
			account, err := env.Did.Resolve(ctx, d, snapshots)
			if err != nil {
				return decimal.Zero, err
			}
			snapshot, err := snapshots.Get(coinType)
			if err != nil {
				return decimal.Zero, err
			}
			return env.Balances.ERC20Balance(ctx, coinType, token, account.Address, snapshot, int32(decimals))
		},
	}, nil
}

// native_balance(coin_type) — the evaluated DID's native coin balance at the
// pinned snapshot of the given chain.
func newNativeBalance(args []string) (*decimalFunction, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("native_balance: coin_type required")
	}
	coinType, err := parseCoinType(args[0])
	if err != nil {
		return nil, fmt.Errorf("native_balance: %v", err)
	}
	return &decimalFunction{
		requiredCoinTypes: []uint32{coinType},
		resolves:          true,
		execute: func(ctx context.Context, env Env, d did.DID, snapshots chain.SnapshotSet) (decimal.Decimal, error) {
			account, err := env.Did.Resolve(ctx, d, snapshots)
			if err != nil {
				return decimal.Zero, err
			}
			snapshot, err := snapshots.Get(coinType)
			if err != nil {
				return decimal.Zero, err
			}
			return env.Balances.NativeBalance(ctx, coinType, account.Address, snapshot)
		},
	}, nil
}

func parseCoinType(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad coin type %q", s)
	}
	return uint32(n), nil
}
