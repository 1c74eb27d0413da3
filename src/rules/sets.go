// Package rules implements the governance policy trees: boolean eligibility
// rules (proposing rights) and decimal weight rules (voting power). Trees are
// community-authored data, so every shape is validated at parse time and
// unknown operators or leaf functions are rejected before evaluation.
package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
)

// Operators of the two tree kinds.
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"
	OpSum = "sum"
	OpMax = "max"
)

var (
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnknownFunction     = errors.New("unknown function")
	ErrMalformedNode       = errors.New("malformed rule node")
	// ErrEmptyMax rejects "max" combinators with zero operands: the maximum
	// of nothing is undefined, and allowing it would let a community anchor
	// a voting rule on an unanswerable question. Enforced at parse time so
	// such trees are never persisted.
	ErrEmptyMax = errors.New("max requires at least one operand")
)

// BooleanNode is either a leaf unit (Function set) or a combinator
// (Operator set). Exactly one of the two forms must be populated.
type BooleanNode struct {
	Operator  string        `json:"operator,omitempty"`
	Operands  []BooleanNode `json:"operands,omitempty"`
	Function  string        `json:"function,omitempty"`
	Arguments []string      `json:"arguments,omitempty"`
}

// DecimalNode mirrors BooleanNode for weight trees.
type DecimalNode struct {
	Operator  string        `json:"operator,omitempty"`
	Operands  []DecimalNode `json:"operands,omitempty"`
	Function  string        `json:"function,omitempty"`
	Arguments []string      `json:"arguments,omitempty"`
}

// DidResolver is the identity collaborator evaluation depends on.
type DidResolver interface {
	Resolve(ctx context.Context, d did.DID, snapshots chain.SnapshotSet) (did.Account, error)
	SchemeCoinType(d did.DID) (uint32, error)
}

// Balances is the chain collaborator weight leaves query.
type Balances interface {
	NativeBalance(ctx context.Context, coinType uint32, address string, snapshot chain.Snapshot) (decimal.Decimal, error)
	ERC20Balance(ctx context.Context, coinType uint32, token, address string, snapshot chain.Snapshot, decimals int32) (decimal.Decimal, error)
}

// Env carries the collaborators leaf functions may touch. Evaluation itself
// is side-effect-free: the same env, tree, DID and snapshots always produce
// the same result.
type Env struct {
	Did      DidResolver
	Balances Balances
}

// ValidateBoolean rejects malformed trees: unknown operators, unknown leaf
// functions, bad arities, bad arguments.
func ValidateBoolean(node *BooleanNode) error {
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrMalformedNode)
	}
	if node.Operator != "" {
		if node.Function != "" {
			return fmt.Errorf("%w: node has both operator and function", ErrMalformedNode)
		}
		switch node.Operator {
		case OpAnd, OpOr:
		case OpNot:
			if len(node.Operands) != 1 {
				return fmt.Errorf("%w: not requires exactly one operand, got %d", ErrMalformedNode, len(node.Operands))
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedOperator, node.Operator)
		}
		for i := range node.Operands {
			if err := ValidateBoolean(&node.Operands[i]); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := newBooleanFunction(node.Function, node.Arguments)
	return err
}

// ValidateDecimal rejects malformed weight trees, including empty "max"
// combinators (see ErrEmptyMax).
func ValidateDecimal(node *DecimalNode) error {
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrMalformedNode)
	}
	if node.Operator != "" {
		if node.Function != "" {
			return fmt.Errorf("%w: node has both operator and function", ErrMalformedNode)
		}
		switch node.Operator {
		case OpSum:
		case OpMax:
			if len(node.Operands) == 0 {
				return ErrEmptyMax
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedOperator, node.Operator)
		}
		for i := range node.Operands {
			if err := ValidateDecimal(&node.Operands[i]); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := newDecimalFunction(node.Function, node.Arguments)
	return err
}
