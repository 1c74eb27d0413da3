package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/schema"
)

type Grants struct{ svc *Services }

func NewGrants(svc *Services) Grants { return Grants{svc: svc} }

func (h Grants) Import(c *gin.Context) {
	var doc schema.Grant
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeGrant, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}

	var community schema.Community
	if err := h.svc.loadDocument(c, doc.Community, &community); err != nil {
		writeError(c, err)
		return
	}
	if string(doc.Authorship.Author) != community.ID {
		writeError(c, fmt.Errorf("%w: only the community entry did may open grants", errForbidden))
		return
	}

	permalink, err := h.svc.Network.Upload(c, body)
	if err != nil {
		writeError(c, err)
		return
	}
	row := &data.Grant{
		Permalink:          permalink,
		CommunityID:        community.ID,
		CommunityPermalink: doc.Community,
		TS:                 time.Now(),
	}
	if err := data.PutGrant(h.svc.DB, row, body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

func (h Grants) Get(c *gin.Context) {
	row, err := data.GetGrant(h.svc.DB, c.Param("permalink"))
	if err != nil {
		writeError(c, err)
		return
	}
	blob, err := data.GetBlob(h.svc.DB, row.Permalink)
	if err != nil {
		writeError(c, err)
		return
	}
	var doc schema.Grant
	boundaries := phase.Boundaries{}
	if err := json.Unmarshal(blob, &doc); err == nil {
		boundaries = h.svc.grantBoundaries(c, row, doc.Duration)
	}
	c.JSON(http.StatusOK, gin.H{
		"permalink": row.Permalink,
		"community": row.CommunityID,
		"ts":        row.TS,
		"phase":     boundaries.At(time.Now()),
		"proposals": row.Proposals,
		"document":  json.RawMessage(blob),
	})
}

func (h Grants) List(c *gin.Context) {
	rows, err := data.ListGrants(
		h.svc.DB,
		c.Param("id"),
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
			"ts":        row.TS,
			"proposals": row.Proposals,
		}
		if blob, err := data.GetBlob(h.svc.DB, row.Permalink); err == nil {
			entry["document"] = json.RawMessage(blob)
		}
		out = append(out, entry)
		next = row.Permalink
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "next": next})
}
