package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceOptionsSingle(t *testing.T) {
	options, err := ChoiceOptions(VotingTypeSingle, `"yes"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes"}, options)

	_, err = ChoiceOptions(VotingTypeSingle, `""`)
	assert.ErrorIs(t, err, ErrEmptyChoice)

	_, err = ChoiceOptions(VotingTypeSingle, `["yes","no"]`)
	assert.ErrorIs(t, err, ErrMultiSelectNotAllowed)

	_, err = ChoiceOptions(VotingTypeSingle, `[]`)
	assert.ErrorIs(t, err, ErrEmptyChoice)

	_, err = ChoiceOptions(VotingTypeSingle, `{"a":1}`)
	assert.ErrorIs(t, err, ErrMalformedChoice)
}

func TestChoiceOptionsApproval(t *testing.T) {
	options, err := ChoiceOptions(VotingTypeApproval, `["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, options)

	_, err = ChoiceOptions(VotingTypeApproval, `[]`)
	assert.ErrorIs(t, err, ErrEmptyChoice)

	_, err = ChoiceOptions(VotingTypeApproval, `["a","a"]`)
	assert.ErrorIs(t, err, ErrMalformedChoice)

	_, err = ChoiceOptions(VotingTypeApproval, `["a",""]`)
	assert.ErrorIs(t, err, ErrEmptyChoice)

	_, err = ChoiceOptions(VotingTypeApproval, `"a"`)
	assert.ErrorIs(t, err, ErrMalformedChoice)
}

func TestChoiceOptionsUnknownVotingType(t *testing.T) {
	_, err := ChoiceOptions("ranked", `"a"`)
	assert.ErrorIs(t, err, ErrMalformedChoice)
}
