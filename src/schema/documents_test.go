package schema

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/rules"
)

func validAuthorship() Authorship {
	return Authorship{
		Author:    "alice.bit",
		CoinType:  60,
		Snapshot:  "1000",
		Address:   "0x00000000000000000000000000000000000000aa",
		Proof:     "1:abc",
		Signature: "c2ln",
	}
}

func validGroup() *Group {
	return &Group{
		ID:        "council",
		Name:      "Council",
		Community: "dao.bit",
		Permission: GroupPermission{
			Proposing: rules.BooleanNode{Function: "is_sub_did_of", Arguments: []string{"dao.bit"}},
			Voting:    rules.DecimalNode{Function: "prefixes_dot_suffix_fixed_power", Arguments: []string{"1", "dao.bit"}},
		},
		Duration:   GroupDuration{Announcing: 3600, Voting: 86400},
		Authorship: validAuthorship(),
	}
}

func TestGroupValidate(t *testing.T) {
	assert.NoError(t, validGroup().Validate())

	g := validGroup()
	g.Duration.Voting = 30
	assert.ErrorIs(t, g.Validate(), ErrValidation)

	g = validGroup()
	g.Permission.Voting = rules.DecimalNode{Operator: "max"}
	assert.ErrorIs(t, g.Validate(), ErrValidation)

	g = validGroup()
	g.Permission.Proposing = rules.BooleanNode{Function: "bogus"}
	assert.ErrorIs(t, g.Validate(), ErrValidation)
}

func validGroupProposal() *GroupProposal {
	return &GroupProposal{
		Community:  "ar://communitylink",
		Group:      "ar://grouplink",
		Title:      "Fund the docs",
		Options:    []string{"approve", "reject"},
		VotingType: VotingTypeSingle,
		Snapshots:  chain.SnapshotSet{60: "1000"},
		Authorship: validAuthorship(),
	}
}

func TestGroupProposalValidate(t *testing.T) {
	assert.NoError(t, validGroupProposal().Validate())

	p := validGroupProposal()
	p.Options = []string{"only"}
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p = validGroupProposal()
	p.Options = []string{"a", "a"}
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p = validGroupProposal()
	p.VotingType = "ranked"
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p = validGroupProposal()
	p.Snapshots = nil
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p = validGroupProposal()
	p.Content = `<script>alert(1)</script>`
	assert.ErrorIs(t, p.Validate(), ErrValidation)
}

func TestVoteValidate(t *testing.T) {
	v := &Vote{
		Proposal:   "ar://proposallink",
		Choice:     `"approve"`,
		Power:      decimal.NewFromInt(3),
		Authorship: validAuthorship(),
	}
	assert.NoError(t, v.Validate())

	v.Power = decimal.Zero
	assert.ErrorIs(t, v.Validate(), ErrValidation)

	v.Power = decimal.NewFromInt(-1)
	assert.ErrorIs(t, v.Validate(), ErrValidation)
}

func TestRequireSanitary(t *testing.T) {
	for _, s := range []string{
		"plain **markdown** text",
		"AT&T governance",
		"payout if votes > 100",
		"a < b comparison",
		"<strong>bold</strong> and <em>emphasis</em>",
		`<a href="https://example.com">docs</a>`,
	} {
		assert.NoError(t, RequireSanitary("content", s), s)
	}
	for _, s := range []string{
		`<img src=x onerror=alert(1)>`,
		`<script>alert(1)</script>`,
		`<a href="javascript:alert(1)">x</a>`,
	} {
		assert.ErrorIs(t, RequireSanitary("content", s), ErrValidation, s)
	}
}
