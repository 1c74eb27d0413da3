package rules

import (
	"sort"

	"github.com/renzholy/voty/src/did"
)

// SchemeCoinTyper is the slice of the identity resolver the static traversal
// needs: which chain a DID's own records live on.
type SchemeCoinTyper interface {
	SchemeCoinType(d did.DID) (uint32, error)
}

// RequiredCoinTypesBoolean returns, without evaluating anything, the exact
// set of coin types EvalBoolean would dereference for this tree and DID.
// Callers use it to fetch only the necessary snapshots up front.
func RequiredCoinTypesBoolean(node *BooleanNode, d did.DID, schemes SchemeCoinTyper) ([]uint32, error) {
	set := make(map[uint32]bool)
	if err := collectBoolean(node, d, schemes, set); err != nil {
		return nil, err
	}
	return sortedCoinTypes(set), nil
}

// RequiredCoinTypesDecimal mirrors RequiredCoinTypesBoolean for weight trees.
func RequiredCoinTypesDecimal(node *DecimalNode, d did.DID, schemes SchemeCoinTyper) ([]uint32, error) {
	set := make(map[uint32]bool)
	if err := collectDecimal(node, d, schemes, set); err != nil {
		return nil, err
	}
	return sortedCoinTypes(set), nil
}

func collectBoolean(node *BooleanNode, d did.DID, schemes SchemeCoinTyper, set map[uint32]bool) error {
	if node.Operator != "" {
		for i := range node.Operands {
			if err := collectBoolean(&node.Operands[i], d, schemes, set); err != nil {
				return err
			}
		}
		return nil
	}
	fn, err := newBooleanFunction(node.Function, node.Arguments)
	if err != nil {
		return err
	}
	return collectLeaf(fn.requiredCoinTypes, fn.resolves, d, schemes, set)
}

func collectDecimal(node *DecimalNode, d did.DID, schemes SchemeCoinTyper, set map[uint32]bool) error {
	if node.Operator != "" {
		for i := range node.Operands {
			if err := collectDecimal(&node.Operands[i], d, schemes, set); err != nil {
				return err
			}
		}
		return nil
	}
	fn, err := newDecimalFunction(node.Function, node.Arguments)
	if err != nil {
		return err
	}
	return collectLeaf(fn.requiredCoinTypes, fn.resolves, d, schemes, set)
}

func collectLeaf(static []uint32, resolves bool, d did.DID, schemes SchemeCoinTyper, set map[uint32]bool) error {
	for _, coinType := range static {
		set[coinType] = true
	}
	if resolves {
		coinType, err := schemes.SchemeCoinType(d)
		if err != nil {
			return err
		}
		set[coinType] = true
	}
	return nil
}

func sortedCoinTypes(set map[uint32]bool) []uint32 {
	out := make([]uint32, 0, len(set))
	for coinType := range set {
		out = append(out, coinType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
