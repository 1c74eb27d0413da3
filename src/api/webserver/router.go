package webserver

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/renzholy/voty/src/api/config"
)

func attachRoutes(r *gin.Engine, cfg config.Config, svc *Services) {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if cfg.AllowedOrigins == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	r.Use(cors.New(corsCfg))

	limiter := newImportLimiter(10, time.Minute)

	authH := NewAuth(svc, []byte(cfg.JWTSecret))
	communityH := NewCommunities(svc)
	groupH := NewGroups(svc)
	groupProposalH := NewGroupProposals(svc)
	grantH := NewGrants(svc)
	grantProposalH := NewGrantProposals(svc)
	voteH := NewVotes(svc)
	subH := NewSubscriptions(svc)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)
		v1.GET("/platform", authH.Platform)

		v1.GET("/communities", communityH.List)
		v1.GET("/communities/:id", communityH.Get)
		v1.GET("/communities/:id/groups", groupH.List)
		v1.GET("/communities/:id/groups/:group", groupH.Get)
		v1.GET("/communities/:id/group-proposals", groupProposalH.List)
		v1.GET("/communities/:id/grants", grantH.List)
		v1.GET("/group-proposals/:permalink", groupProposalH.Get)
		v1.GET("/grants/:permalink", grantH.Get)
		v1.GET("/grants/:permalink/proposals", grantProposalH.List)
		v1.GET("/grant-proposals/:permalink", grantProposalH.Get)
		v1.GET("/votes", voteH.List)
		v1.GET("/counting/:proposal", voteH.Counting)
		v1.GET("/documents/:permalink", communityH.Document)

		imports := v1.Group("")
		imports.Use(limiter.middleware())
		{
			imports.POST("/communities", communityH.Import)
			imports.POST("/groups", groupH.Import)
			imports.POST("/group-proposals", groupProposalH.Import)
			imports.POST("/grants", grantH.Import)
			imports.POST("/grant-proposals", grantProposalH.Import)
			imports.POST("/votes", voteH.Import)
		}

		secured := v1.Group("")
		secured.Use(requireSession([]byte(cfg.JWTSecret)))
		{
			secured.GET("/subscriptions", subH.List)
			secured.POST("/subscriptions/:id", subH.Subscribe)
			secured.DELETE("/subscriptions/:id", subH.Unsubscribe)
		}
	}
}
