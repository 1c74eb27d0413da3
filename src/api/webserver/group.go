package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/schema"
)

type Groups struct{ svc *Services }

func NewGroups(svc *Services) Groups { return Groups{svc: svc} }

func (h Groups) Import(c *gin.Context) {
	var doc schema.Group
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeGroup, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}
	// The community must already be anchored here, and only its entry DID
	// may shape its groups.
	if _, err := data.GetCommunity(h.svc.DB, doc.Community); err != nil {
		writeError(c, err)
		return
	}
	if string(doc.Authorship.Author) != doc.Community {
		writeError(c, fmt.Errorf("%w: only the community entry did may sign its groups", errForbidden))
		return
	}
	permalink, err := h.svc.Network.Upload(c, body)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := data.PutGroup(h.svc.DB, permalink, doc.Community, doc.ID, time.Now(), body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

func (h Groups) Get(c *gin.Context) {
	row, err := data.GetGroup(h.svc.DB, c.Param("id"), c.Param("group"))
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
		"community": row.CommunityID,
		"id":        row.GroupID,
		"permalink": row.Permalink,
		"ts":        row.TS,
		"document":  json.RawMessage(blob),
	})
}

func (h Groups) List(c *gin.Context) {
	rows, err := data.ListGroups(h.svc.DB, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		entry := gin.H{"id": row.GroupID, "permalink": row.Permalink, "ts": row.TS}
		if blob, err := data.GetBlob(h.svc.DB, row.Permalink); err == nil {
			entry["document"] = json.RawMessage(blob)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
