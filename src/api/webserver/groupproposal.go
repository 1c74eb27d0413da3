package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/rules"
	"github.com/renzholy/voty/src/schema"
)

type GroupProposals struct{ svc *Services }

func NewGroupProposals(svc *Services) GroupProposals { return GroupProposals{svc: svc} }

func (h GroupProposals) Import(c *gin.Context) {
	var doc schema.GroupProposal
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeGroupProposal, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}

	var community schema.Community
	if err := h.svc.loadDocument(c, doc.Community, &community); err != nil {
		writeError(c, err)
		return
	}
	var group schema.Group
	if err := h.svc.loadDocument(c, doc.Group, &group); err != nil {
		writeError(c, err)
		return
	}
	if group.Community != community.ID {
		writeError(c, fmt.Errorf("%w: group belongs to %q", errInconsistent, group.Community))
		return
	}

	author := doc.Authorship.Author
	if err := h.checkSnapshots(&group, author, doc.Snapshots); err != nil {
		writeError(c, err)
		return
	}
	allowed, err := rules.EvalBoolean(c, h.svc.rulesEnv(), &group.Permission.Proposing, author, doc.Snapshots)
	if err != nil {
		writeError(c, err)
		return
	}
	if !allowed {
		writeError(c, fmt.Errorf("%w: author does not satisfy the proposing rule", errForbidden))
		return
	}

	permalink, err := h.svc.Network.Upload(c, body)
	if err != nil {
		writeError(c, err)
		return
	}
	row := &data.GroupProposal{
		Permalink:      permalink,
		CommunityID:    community.ID,
		GroupID:        group.ID,
		GroupPermalink: doc.Group,
		TS:             time.Now(),
	}
	if err := data.PutGroupProposal(h.svc.DB, row, body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

// checkSnapshots requires the proposal to pin every chain its group's rules
// will dereference for this author. Extra snapshots are rejected too, so a
// proposal cannot smuggle unused pins.
func (h GroupProposals) checkSnapshots(group *schema.Group, author did.DID, snapshots chain.SnapshotSet) error {
	proposing, err := rules.RequiredCoinTypesBoolean(&group.Permission.Proposing, author, h.svc.Dids)
	if err != nil {
		return err
	}
	voting, err := rules.RequiredCoinTypesDecimal(&group.Permission.Voting, author, h.svc.Dids)
	if err != nil {
		return err
	}
	required := make(map[uint32]bool)
	for _, coinType := range proposing {
		required[coinType] = true
	}
	for _, coinType := range voting {
		required[coinType] = true
	}
	for coinType := range required {
		if _, ok := snapshots[coinType]; !ok {
			return fmt.Errorf("%w: coin type %d", chain.ErrMissingSnapshot, coinType)
		}
	}
	for coinType := range snapshots {
		if !required[coinType] {
			return fmt.Errorf("%w: snapshot for unused coin type %d", errInconsistent, coinType)
		}
	}
	return nil
}

func (h GroupProposals) Get(c *gin.Context) {
	row, err := data.GetGroupProposal(h.svc.DB, c.Param("permalink"))
	if err != nil {
		writeError(c, err)
		return
	}
	blob, err := data.GetBlob(h.svc.DB, row.Permalink)
	if err != nil {
		writeError(c, err)
		return
	}
	boundaries := h.boundaries(c, row)
	c.JSON(http.StatusOK, gin.H{
		"permalink": row.Permalink,
		"community": row.CommunityID,
		"group":     row.GroupID,
		"ts":        row.TS,
		"phase":     boundaries.At(time.Now()),
		"votes":     row.Votes,
		"document":  json.RawMessage(blob),
	})
}

func (h GroupProposals) List(c *gin.Context) {
	rows, err := data.ListGroupProposals(
		h.svc.DB,
		c.Param("id"),
		c.Query("group"),
		phase.Phase(c.Query("phase")),
		time.Now(),
		c.Query("cursor"),
		intQuery(c, "limit"),
	)
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
			"group":     row.GroupID,
			"ts":        row.TS,
			"votes":     row.Votes,
		}
		if blob, err := data.GetBlob(h.svc.DB, row.Permalink); err == nil {
			entry["document"] = json.RawMessage(blob)
		}
		out = append(out, entry)
		next = row.Permalink
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "next": next})
}

// boundaries resolves the proposal's phase window, loading its group for the
// durations and filling lazily on first successful anchor resolution.
func (h GroupProposals) boundaries(ctx context.Context, row *data.GroupProposal) phase.Boundaries {
	var group schema.Group
	if err := h.svc.loadDocument(ctx, row.GroupPermalink, &group); err != nil {
		return phase.Boundaries{}
	}
	return h.svc.groupProposalBoundaries(ctx, row, group.Duration)
}
