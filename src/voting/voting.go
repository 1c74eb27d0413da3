// Package voting folds accepted votes into per-option power totals.
package voting

import (
	"github.com/shopspring/decimal"

	"github.com/renzholy/voty/src/schema"
)

// PowerOfChoice attributes a vote's power across the options its choice
// selects. Single-choice votes put the entire power on the one option.
// Approval votes put the full power on every selected option independently:
// approving k options grants each of them the whole power, not a split.
func PowerOfChoice(votingType, choice string, power decimal.Decimal) (map[string]decimal.Decimal, error) {
	options, err := schema.ChoiceOptions(votingType, choice)
	if err != nil {
		return nil, err
	}
	powers := make(map[string]decimal.Decimal, len(options))
	for _, option := range options {
		powers[option] = power
	}
	return powers, nil
}
