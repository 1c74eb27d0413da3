package webserver

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renzholy/voty/src/authorship"
	"github.com/renzholy/voty/src/data"
)

type Auth struct {
	svc       *Services
	jwtSecret []byte
}

func NewAuth(svc *Services, secret []byte) Auth {
	return Auth{svc: svc, jwtSecret: secret}
}

func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address  string `json:"address" binding:"required"`
		CoinType uint32 `json:"coin_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	nonce := uuid.NewString()
	if err := data.SetNonce(c, a.svc.RDB, req.Address, nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "challenge unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Platform discloses the platform's signing identity and proves possession
// of the key by signing a caller-chosen challenge, so clients can pin the
// address that platform-issued documents carry.
func (a Auth) Platform(c *gin.Context) {
	if a.svc.Signer == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "no platform key configured"})
		return
	}
	challenge := c.Query("challenge")
	if challenge == "" || len(challenge) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "challenge must be 1-128 bytes"})
		return
	}
	signature, err := a.svc.Signer.SignMessage([]byte(challenge))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":   a.svc.Signer.Address(),
		"signature": signature,
	})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		CoinType  uint32 `json:"coin_type" binding:"required"`
		Signature string `json:"signature" binding:"required"` // base64
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	nonce, err := data.GetAndDelNonce(c, a.svc.RDB, req.Address)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired"})
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad signature encoding"})
		return
	}
	if err := authorship.VerifyMessage(req.CoinType, req.Address, signature, []byte(nonce)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	token, err := issueSession(req.Address, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
