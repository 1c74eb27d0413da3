package rules

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
)

// EvalDecimal evaluates a weight tree for one DID at a pinned snapshot set.
// All arithmetic is exact decimal; sum of zero operands is zero, max of zero
// operands is ErrEmptyMax.
func EvalDecimal(ctx context.Context, env Env, node *DecimalNode, d did.DID, snapshots chain.SnapshotSet) (decimal.Decimal, error) {
	if node.Operator == "" {
		fn, err := newDecimalFunction(node.Function, node.Arguments)
		if err != nil {
			return decimal.Zero, err
		}
		return fn.execute(ctx, env, d, snapshots)
	}

	results := make([]decimal.Decimal, len(node.Operands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chainFanout)
	for i := range node.Operands {
		g.Go(func() error {
			result, err := EvalDecimal(gctx, env, &node.Operands[i], d, snapshots)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	switch node.Operator {
	case OpSum:
		total := decimal.Zero
		for _, result := range results {
			total = total.Add(result)
		}
		return total, nil
	case OpMax:
		if len(results) == 0 {
			return decimal.Zero, ErrEmptyMax
		}
		max := results[0]
		for _, result := range results[1:] {
			if result.GreaterThan(max) {
				max = result
			}
		}
		return max, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedOperator, node.Operator)
	}
}
