package did

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/renzholy/voty/src/chain"
)

// ensRegistry is the ENS registry contract, identical on mainnet and the
// common testnets.
var ensRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	ensResolverSelector = crypto.Keccak256([]byte("resolver(bytes32)"))[:4]
	ensAddrSelector     = crypto.Keccak256([]byte("addr(bytes32)"))[:4]
)

// ContractCaller is the read-only EVM call surface ENS resolution needs.
type ContractCaller interface {
	Call(ctx context.Context, to common.Address, data []byte, snapshot chain.Snapshot) ([]byte, error)
}

// ENS resolves ".eth" names against the on-chain registry at a pinned block.
type ENS struct {
	caller ContractCaller
}

func NewENS(caller ContractCaller) *ENS {
	return &ENS{caller: caller}
}

func (e *ENS) CoinType() uint32 { return chain.CoinTypeEthereum }

func (e *ENS) Resolve(ctx context.Context, id DID, snapshots chain.SnapshotSet) (Account, error) {
	snapshot, err := snapshots.Get(chain.CoinTypeEthereum)
	if err != nil {
		return Account{}, err
	}
	node := Namehash(string(id))

	resolverOut, err := e.caller.Call(ctx, ensRegistry, append(append([]byte{}, ensResolverSelector...), node[:]...), snapshot)
	if err != nil {
		return Account{}, err
	}
	if len(resolverOut) < 32 {
		return Account{}, fmt.Errorf("%w: %s (registry returned %d bytes)", ErrDidNotFound, id, len(resolverOut))
	}
	resolver := common.BytesToAddress(resolverOut[12:32])
	if resolver == (common.Address{}) {
		return Account{}, fmt.Errorf("%w: %s (no resolver)", ErrDidNotFound, id)
	}

	addrOut, err := e.caller.Call(ctx, resolver, append(append([]byte{}, ensAddrSelector...), node[:]...), snapshot)
	if err != nil {
		return Account{}, err
	}
	if len(addrOut) < 32 {
		return Account{}, fmt.Errorf("%w: %s (resolver returned %d bytes)", ErrDidNotFound, id, len(addrOut))
	}
	address := common.BytesToAddress(addrOut[12:32])
	if address == (common.Address{}) {
		return Account{}, fmt.Errorf("%w: %s (no address record)", ErrDidNotFound, id)
	}

	return Account{CoinType: chain.CoinTypeEthereum, Address: strings.ToLower(address.Hex())}, nil
}

// Namehash implements the EIP-137 recursive name hash.
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], label))
	}
	return node
}
