package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/rules"
	"github.com/renzholy/voty/src/schema"
	"github.com/renzholy/voty/src/voting"
)

type Votes struct{ svc *Services }

func NewVotes(svc *Services) Votes { return Votes{svc: svc} }

// Import anchors a vote on a group proposal or a grant proposal. The
// declared power must equal the power the target's voting rule computes at
// the pinned snapshots, so a vote can be re-verified forever from its
// document alone.
func (h Votes) Import(c *gin.Context) {
	var doc schema.Vote
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeVote, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}

	groupProposal, err := data.GetGroupProposal(h.svc.DB, doc.Proposal)
	switch {
	case err == nil:
		h.importGroupProposalVote(c, &doc, body, groupProposal)
	case errors.Is(err, gorm.ErrRecordNotFound):
		grantProposal, err := data.GetGrantProposal(h.svc.DB, doc.Proposal)
		if err != nil {
			writeError(c, err)
			return
		}
		h.importGrantProposalVote(c, &doc, body, grantProposal)
	default:
		writeError(c, err)
	}
}

func (h Votes) importGroupProposalVote(c *gin.Context, doc *schema.Vote, body []byte, row *data.GroupProposal) {
	var proposal schema.GroupProposal
	if err := h.svc.loadDocument(c, doc.Proposal, &proposal); err != nil {
		writeError(c, err)
		return
	}
	var group schema.Group
	if err := h.svc.loadDocument(c, row.GroupPermalink, &group); err != nil {
		writeError(c, err)
		return
	}

	boundaries := h.svc.groupProposalBoundaries(c, row, group.Duration)
	if current := boundaries.At(time.Now()); current != phase.Voting {
		writeError(c, fmt.Errorf("%w: proposal is %s", errWrongPhase, current))
		return
	}

	power, err := rules.EvalDecimal(c, h.svc.rulesEnv(), &group.Permission.Voting, doc.Authorship.Author, proposal.Snapshots)
	if err != nil {
		writeError(c, err)
		return
	}
	powers, err := h.attribution(doc, proposal.VotingType, power)
	if err != nil {
		writeError(c, err)
		return
	}
	for option := range powers {
		if !containsOption(proposal.Options, option) {
			writeError(c, fmt.Errorf("%w: option %q is not on the ballot", errInconsistent, option))
			return
		}
	}
	h.persist(c, doc, body, powers, &data.GroupProposal{})
}

func (h Votes) importGrantProposalVote(c *gin.Context, doc *schema.Vote, body []byte, row *data.GrantProposal) {
	grantRow, err := data.GetGrant(h.svc.DB, row.GrantPermalink)
	if err != nil {
		writeError(c, err)
		return
	}
	var grant schema.Grant
	if err := h.svc.loadDocument(c, row.GrantPermalink, &grant); err != nil {
		writeError(c, err)
		return
	}

	boundaries := h.svc.grantBoundaries(c, grantRow, grant.Duration)
	if current := boundaries.At(time.Now()); current != phase.Voting {
		writeError(c, fmt.Errorf("%w: grant is %s", errWrongPhase, current))
		return
	}

	power, err := rules.EvalDecimal(c, h.svc.rulesEnv(), &grant.Permission.Voting, doc.Authorship.Author, grant.Snapshots)
	if err != nil {
		writeError(c, err)
		return
	}
	// Grant proposals take a single-selection ballot.
	powers, err := h.attribution(doc, schema.VotingTypeSingle, power)
	if err != nil {
		writeError(c, err)
		return
	}
	h.persist(c, doc, body, powers, &data.GrantProposal{})
}

// attribution checks the declared power against the computed one and splits
// it over the encoded choice.
func (h Votes) attribution(doc *schema.Vote, votingType string, power decimal.Decimal) (map[string]decimal.Decimal, error) {
	if !power.Equal(doc.Power) {
		return nil, fmt.Errorf("%w: declared power %s, computed %s", errInconsistent, doc.Power, power)
	}
	if !power.IsPositive() {
		return nil, fmt.Errorf("%w: no voting power", errForbidden)
	}
	return voting.PowerOfChoice(votingType, doc.Choice, power)
}

func (h Votes) persist(c *gin.Context, doc *schema.Vote, body []byte, powers map[string]decimal.Decimal, counterModel interface{}) {
	permalink, err := h.svc.Network.Upload(c, body)
	if err != nil {
		writeError(c, err)
		return
	}
	row := &data.Vote{
		Permalink: permalink,
		Proposal:  doc.Proposal,
		Author:    string(doc.Authorship.Author),
		TS:        time.Now(),
	}
	if err := data.PutVote(h.svc.DB, row, powers, counterModel, body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

func (h Votes) List(c *gin.Context) {
	proposal := c.Query("proposal")
	if proposal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "proposal required"})
		return
	}
	rows, err := data.ListVotes(h.svc.DB, proposal, c.Query("cursor"), intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	next := ""
	for i := range rows {
		row := &rows[i]
		entry := gin.H{
			"permalink": row.Permalink,
			"author":    row.Author,
			"ts":        row.TS,
		}
		if blob, err := data.GetBlob(h.svc.DB, row.Permalink); err == nil {
			entry["document"] = json.RawMessage(blob)
		}
		out = append(out, entry)
		next = row.Permalink
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "next": next})
}

// Counting returns the accumulated power per option as decimal strings.
func (h Votes) Counting(c *gin.Context) {
	rows, err := data.ListChoices(h.svc.DB, c.Param("proposal"))
	if err != nil {
		writeError(c, err)
		return
	}
	powers := make(map[string]string, len(rows))
	total := decimal.Zero
	for _, row := range rows {
		powers[row.Option] = row.Power.String()
		total = total.Add(row.Power)
	}
	c.JSON(http.StatusOK, gin.H{"powers": powers, "total": total.String()})
}

func containsOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
