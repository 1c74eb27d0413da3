package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/rules"
	"github.com/renzholy/voty/src/schema"
)

type GrantProposals struct{ svc *Services }

func NewGrantProposals(svc *Services) GrantProposals { return GrantProposals{svc: svc} }

// Import anchors a funding application. Applications are only open during
// the grant's proposing window, and the author must satisfy the grant's
// proposing rule at the grant's own pinned snapshots.
func (h GrantProposals) Import(c *gin.Context) {
	var doc schema.GrantProposal
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeGrantProposal, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}

	grantRow, err := data.GetGrant(h.svc.DB, doc.Grant)
	if err != nil {
		writeError(c, err)
		return
	}
	var grant schema.Grant
	if err := h.svc.loadDocument(c, doc.Grant, &grant); err != nil {
		writeError(c, err)
		return
	}
	boundaries := h.svc.grantBoundaries(c, grantRow, grant.Duration)
	if current := boundaries.At(time.Now()); current != phase.Proposing {
		writeError(c, fmt.Errorf("%w: grant is %s", errWrongPhase, current))
		return
	}

	allowed, err := rules.EvalBoolean(c, h.svc.rulesEnv(), &grant.Permission.Proposing, doc.Authorship.Author, grant.Snapshots)
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
	row := &data.GrantProposal{
		Permalink:      permalink,
		GrantPermalink: doc.Grant,
		CommunityID:    grantRow.CommunityID,
		TS:             time.Now(),
	}
	if err := data.PutGrantProposal(h.svc.DB, row, body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

func (h GrantProposals) Get(c *gin.Context) {
	row, err := data.GetGrantProposal(h.svc.DB, c.Param("permalink"))
	if err != nil {
		writeError(c, err)
		return
	}
	blob, err := data.GetBlob(h.svc.DB, row.Permalink)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"permalink": row.Permalink,
		"grant":     row.GrantPermalink,
		"community": row.CommunityID,
		"ts":        row.TS,
		"votes":     row.Votes,
		"document":  json.RawMessage(blob),
	})
}

func (h GrantProposals) List(c *gin.Context) {
	rows, err := data.ListGrantProposals(h.svc.DB, c.Param("permalink"), c.Query("cursor"), intQuery(c, "limit"))
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
