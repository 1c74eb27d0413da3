package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/data"
)

type Subscriptions struct{ svc *Services }

func NewSubscriptions(svc *Services) Subscriptions { return Subscriptions{svc: svc} }

func (h Subscriptions) Subscribe(c *gin.Context) {
	communityID := c.Param("id")
	if _, err := data.GetCommunity(h.svc.DB, communityID); err != nil {
		writeError(c, err)
		return
	}
	if err := data.Subscribe(h.svc.DB, c.GetString("addr"), communityID, time.Now()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h Subscriptions) Unsubscribe(c *gin.Context) {
	if err := data.Unsubscribe(h.svc.DB, c.GetString("addr"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Subscriptions) List(c *gin.Context) {
	rows, err := data.ListSubscriptions(h.svc.DB, c.GetString("addr"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{"community": row.CommunityID, "ts": row.TS})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
