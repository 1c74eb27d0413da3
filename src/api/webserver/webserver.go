package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/renzholy/voty/src/api/config"
	"github.com/renzholy/voty/src/authorship"
	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/storage"
)

// Services bundles the engine collaborators every handler shares.
type Services struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Chains   *chain.Registry
	Dids     *did.Registry
	Verifier *authorship.Verifier
	Network  storage.Network
	Filler   *phase.Filler
	// Signer holds the platform credential; nil when the deployment has no
	// platform key configured.
	Signer *authorship.Signer
}

func New(cfg config.Config, svc *Services) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, svc)
	return g
}
