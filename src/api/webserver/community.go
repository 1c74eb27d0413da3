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

type Communities struct{ svc *Services }

func NewCommunities(svc *Services) Communities { return Communities{svc: svc} }

// Import anchors a signed community document. The entry DID is the
// authorization root: only its resolved owner may create or update the
// community carrying its id.
func (h Communities) Import(c *gin.Context) {
	var doc schema.Community
	body, err := bindDocument(c, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Verifier.Verify(c, &doc, schema.TypeCommunity, &doc.Authorship); err != nil {
		writeError(c, err)
		return
	}
	if string(doc.Authorship.Author) != doc.ID {
		writeError(c, fmt.Errorf("%w: only the entry did may sign its community", errForbidden))
		return
	}
	permalink, err := h.svc.Network.Upload(c, body)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := data.PutCommunity(h.svc.DB, permalink, doc.ID, time.Now(), body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"permalink": permalink})
}

func (h Communities) Get(c *gin.Context) {
	row, err := data.GetCommunity(h.svc.DB, c.Param("id"))
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
		"id":              row.ID,
		"permalink":       row.Permalink,
		"ts":              row.TS,
		"grants":          row.Grants,
		"group_proposals": row.GroupProposals,
		"document":        json.RawMessage(blob),
	})
}

func (h Communities) List(c *gin.Context) {
	rows, err := data.ListCommunities(h.svc.DB, c.Query("cursor"), intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		entry := gin.H{"id": row.ID, "permalink": row.Permalink, "ts": row.TS}
		if blob, err := data.GetBlob(h.svc.DB, row.Permalink); err == nil {
			entry["document"] = json.RawMessage(blob)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "next": nextCursorID(rows)})
}

// Document serves the raw anchored bytes for any permalink.
func (h Communities) Document(c *gin.Context) {
	blob, err := data.GetBlob(h.svc.DB, c.Param("permalink"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", blob)
}

func intQuery(c *gin.Context, key string) int {
	n := 0
	fmt.Sscanf(c.Query(key), "%d", &n)
	return n
}

func nextCursorID(rows []data.Community) string {
	if len(rows) == 0 {
		return ""
	}
	return rows[len(rows)-1].ID
}
