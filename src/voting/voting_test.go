package voting

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renzholy/voty/src/schema"
)

func TestPowerOfChoiceSingle(t *testing.T) {
	power := decimal.RequireFromString("3.5")
	powers, err := PowerOfChoice(schema.VotingTypeSingle, `"approve"`, power)
	require.NoError(t, err)
	require.Len(t, powers, 1)
	assert.True(t, powers["approve"].Equal(power))
}

func TestPowerOfChoiceApprovalGivesFullPowerEach(t *testing.T) {
	power := decimal.RequireFromString("2")
	powers, err := PowerOfChoice(schema.VotingTypeApproval, `["a","b","c"]`, power)
	require.NoError(t, err)
	require.Len(t, powers, 3)
	for option, got := range powers {
		assert.True(t, got.Equal(power), "option %s got %s", option, got)
	}
}

func TestPowerOfChoiceRejectsBadEncoding(t *testing.T) {
	_, err := PowerOfChoice(schema.VotingTypeSingle, `["a","b"]`, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, schema.ErrMultiSelectNotAllowed)

	_, err = PowerOfChoice(schema.VotingTypeApproval, `[]`, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, schema.ErrEmptyChoice)
}

// tally mirrors the database aggregation: per-option rows that only ever
// grow by increments, applied concurrently.
type tally struct {
	mu     sync.Mutex
	powers map[string]decimal.Decimal
}

func (t *tally) add(powers map[string]decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for option, power := range powers {
		t.powers[option] = t.powers[option].Add(power)
	}
}

func TestConcurrentAggregationConverges(t *testing.T) {
	agg := &tally{powers: map[string]decimal.Decimal{}}
	power := decimal.RequireFromString("0.1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			powers, err := PowerOfChoice(schema.VotingTypeApproval, `["a","b"]`, power)
			if err != nil {
				t.Error(err)
				return
			}
			agg.add(powers)
		}()
	}
	wg.Wait()

	want := decimal.RequireFromString("10") // 100 * 0.1, exactly
	assert.True(t, agg.powers["a"].Equal(want), "got %s", agg.powers["a"])
	assert.True(t, agg.powers["b"].Equal(want), "got %s", agg.powers["b"])
}
