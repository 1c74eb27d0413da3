package rules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
)

// chainFanout bounds concurrent operand evaluation. Operands are independent
// read-only chain queries; the limit is backpressure on upstream RPC
// endpoints, not a correctness requirement.
const chainFanout = 5

// EvalBoolean evaluates an eligibility tree for one DID at a pinned snapshot
// set. Any failing operand fails the whole evaluation; there are no partial
// results.
func EvalBoolean(ctx context.Context, env Env, node *BooleanNode, d did.DID, snapshots chain.SnapshotSet) (bool, error) {
	if node.Operator == "" {
		fn, err := newBooleanFunction(node.Function, node.Arguments)
		if err != nil {
			return false, err
		}
		return fn.execute(ctx, env, d, snapshots)
	}

	results := make([]bool, len(node.Operands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chainFanout)
	for i := range node.Operands {
		g.Go(func() error {
			result, err := EvalBoolean(gctx, env, &node.Operands[i], d, snapshots)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	switch node.Operator {
	case OpAnd:
		for _, result := range results {
			if !result {
				return false, nil
			}
		}
		return true, nil // vacuously true for zero operands
	case OpOr:
		for _, result := range results {
			if result {
				return true, nil
			}
		}
		return false, nil // vacuously false for zero operands
	case OpNot:
		if len(results) != 1 {
			return false, fmt.Errorf("%w: not requires exactly one operand", ErrMalformedNode)
		}
		return !results[0], nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, node.Operator)
	}
}
