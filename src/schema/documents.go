package schema

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/rules"
)

// ErrValidation marks malformed or missing required document fields,
// rejected before any verification or side effect.
var ErrValidation = errors.New("invalid document")

func errRequired(field string) error {
	return fmt.Errorf("%w: %s required", ErrValidation, field)
}

// Document type tags mixed into the signed message so a signature for one
// kind can never be replayed as another.
const (
	TypeCommunity     = "community"
	TypeGroup         = "group"
	TypeGroupProposal = "group_proposal"
	TypeGrant         = "grant"
	TypeGrantProposal = "grant_proposal"
	TypeVote          = "vote"
)

// Voting types.
const (
	VotingTypeSingle   = "single"
	VotingTypeApproval = "approval"
)

// minDuration is the shortest phase a group may configure.
const minDuration = 60

// Community is the root governance document. Its ID is the entry DID, which
// is also the authorization root: only the resolved owner of that DID may
// sign community or group mutations.
type Community struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Extension  CommunityExtension `json:"extension,omitempty"`
	Authorship Authorship         `json:"authorship"`
}

type CommunityExtension struct {
	Avatar  string `json:"avatar,omitempty"`
	About   string `json:"about,omitempty"`
	Website string `json:"website,omitempty"`
	Twitter string `json:"twitter,omitempty"`
	Discord string `json:"discord,omitempty"`
	GitHub  string `json:"github,omitempty"`
}

func (c *Community) Validate() error {
	if c.ID == "" {
		return errRequired("id")
	}
	if c.Name == "" {
		return errRequired("name")
	}
	if err := RequireSanitary("extension.about", c.Extension.About); err != nil {
		return err
	}
	return c.Authorship.Validate()
}

// Group is a sub-group with its own proposing and voting rules. Immutable
// once anchored; updates are new signed documents superseding the prior one
// by (community, id).
type Group struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Community  string          `json:"community"` // community entry DID
	Permission GroupPermission `json:"permission"`
	Duration   GroupDuration   `json:"duration"`
	Extension  GroupExtension  `json:"extension,omitempty"`
	Authorship Authorship      `json:"authorship"`
}

type GroupPermission struct {
	Proposing    rules.BooleanNode  `json:"proposing"`
	Voting       rules.DecimalNode  `json:"voting"`
	AddingOption *rules.BooleanNode `json:"adding_option,omitempty"`
}

// GroupDuration holds phase lengths in seconds.
type GroupDuration struct {
	Announcing int64 `json:"announcing"`
	Voting     int64 `json:"voting"`
}

type GroupExtension struct {
	Introduction        string `json:"introduction,omitempty"`
	CriteriaForApproval string `json:"criteria_for_approval,omitempty"`
}

func (g *Group) Validate() error {
	if g.ID == "" {
		return errRequired("id")
	}
	if g.Name == "" {
		return errRequired("name")
	}
	if g.Community == "" {
		return errRequired("community")
	}
	if g.Duration.Announcing < minDuration {
		return fmt.Errorf("%w: duration.announcing below %ds", ErrValidation, minDuration)
	}
	if g.Duration.Voting < minDuration {
		return fmt.Errorf("%w: duration.voting below %ds", ErrValidation, minDuration)
	}
	if err := rules.ValidateBoolean(&g.Permission.Proposing); err != nil {
		return fmt.Errorf("%w: permission.proposing: %v", ErrValidation, err)
	}
	if err := rules.ValidateDecimal(&g.Permission.Voting); err != nil {
		return fmt.Errorf("%w: permission.voting: %v", ErrValidation, err)
	}
	if g.Permission.AddingOption != nil {
		if err := rules.ValidateBoolean(g.Permission.AddingOption); err != nil {
			return fmt.Errorf("%w: permission.adding_option: %v", ErrValidation, err)
		}
	}
	return g.Authorship.Validate()
}

// GroupProposal is a proposal within a group. It pins the exact community
// and group documents by permalink plus the snapshots every weight check
// replays against.
type GroupProposal struct {
	Community  string            `json:"community"` // community permalink
	Group      string            `json:"group"`     // group permalink
	Title      string            `json:"title"`
	Content    string            `json:"content,omitempty"`
	Options    []string          `json:"options"`
	VotingType string            `json:"voting_type"`
	Snapshots  chain.SnapshotSet `json:"snapshots"`
	Authorship Authorship        `json:"authorship"`
}

func (p *GroupProposal) Validate() error {
	if p.Community == "" {
		return errRequired("community")
	}
	if p.Group == "" {
		return errRequired("group")
	}
	if p.Title == "" {
		return errRequired("title")
	}
	if err := validateOptions(p.Options); err != nil {
		return err
	}
	if p.VotingType != VotingTypeSingle && p.VotingType != VotingTypeApproval {
		return fmt.Errorf("%w: voting_type %q", ErrValidation, p.VotingType)
	}
	if err := RequireSanitary("content", p.Content); err != nil {
		return err
	}
	if len(p.Snapshots) == 0 {
		return errRequired("snapshots")
	}
	return p.Authorship.Validate()
}

func validateOptions(options []string) error {
	if len(options) < 2 {
		return fmt.Errorf("%w: at least two options required", ErrValidation)
	}
	seen := make(map[string]bool, len(options))
	for _, option := range options {
		if option == "" {
			return fmt.Errorf("%w: empty option", ErrValidation)
		}
		if seen[option] {
			return fmt.Errorf("%w: duplicate option %q", ErrValidation, option)
		}
		seen[option] = true
	}
	return nil
}

// Grant is a multi-stage funding round: announcing, then proposing (grant
// proposals are submitted), then voting.
type Grant struct {
	Community    string            `json:"community"` // community permalink
	Name         string            `json:"name"`
	Introduction string            `json:"introduction,omitempty"`
	Funding      []Funding         `json:"funding"`
	Permission   GrantPermission   `json:"permission"`
	Duration     GrantDuration     `json:"duration"`
	Snapshots    chain.SnapshotSet `json:"snapshots"`
	Authorship   Authorship        `json:"authorship"`
}

type Funding struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type GrantPermission struct {
	Proposing rules.BooleanNode `json:"proposing"`
	Voting    rules.DecimalNode `json:"voting"`
}

type GrantDuration struct {
	Announcing int64 `json:"announcing"`
	Proposing  int64 `json:"proposing"`
	Voting     int64 `json:"voting"`
}

func (g *Grant) Validate() error {
	if g.Community == "" {
		return errRequired("community")
	}
	if g.Name == "" {
		return errRequired("name")
	}
	if len(g.Funding) == 0 {
		return errRequired("funding")
	}
	for _, funding := range g.Funding {
		if funding.Description == "" || funding.Amount <= 0 {
			return fmt.Errorf("%w: funding entries need a description and a positive amount", ErrValidation)
		}
	}
	if g.Duration.Announcing < minDuration || g.Duration.Proposing < minDuration || g.Duration.Voting < minDuration {
		return fmt.Errorf("%w: every duration must be at least %ds", ErrValidation, minDuration)
	}
	if err := rules.ValidateBoolean(&g.Permission.Proposing); err != nil {
		return fmt.Errorf("%w: permission.proposing: %v", ErrValidation, err)
	}
	if err := rules.ValidateDecimal(&g.Permission.Voting); err != nil {
		return fmt.Errorf("%w: permission.voting: %v", ErrValidation, err)
	}
	if err := RequireSanitary("introduction", g.Introduction); err != nil {
		return err
	}
	if len(g.Snapshots) == 0 {
		return errRequired("snapshots")
	}
	return g.Authorship.Validate()
}

// GrantProposal is a funding application submitted during its grant's
// proposing phase.
type GrantProposal struct {
	Grant      string     `json:"grant"` // grant permalink
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Authorship Authorship `json:"authorship"`
}

func (p *GrantProposal) Validate() error {
	if p.Grant == "" {
		return errRequired("grant")
	}
	if p.Title == "" {
		return errRequired("title")
	}
	if err := RequireSanitary("content", p.Content); err != nil {
		return err
	}
	return p.Authorship.Validate()
}

// Vote casts the author's full power over an encoded choice on a proposal.
// Immutable once accepted; exactly one vote per (proposal, author).
type Vote struct {
	Proposal   string          `json:"proposal"` // proposal permalink
	Choice     string          `json:"choice"`   // encoded selection, see choice.go
	Power      decimal.Decimal `json:"power"`
	Authorship Authorship      `json:"authorship"`
}

func (v *Vote) Validate() error {
	if v.Proposal == "" {
		return errRequired("proposal")
	}
	if v.Choice == "" {
		return errRequired("choice")
	}
	if !v.Power.IsPositive() {
		return fmt.Errorf("%w: power must be positive", ErrValidation)
	}
	return v.Authorship.Validate()
}
