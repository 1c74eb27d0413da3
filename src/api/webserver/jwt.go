package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

// issueSession mints the bearer token handed out after a successful wallet
// challenge. The only claim of interest is the verified wallet address.
func issueSession(addr string, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"addr": addr,
		"iat":  now.Unix(),
		"exp":  now.Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// requireSession gates subscription endpoints on a valid session token and
// exposes the wallet address to handlers as "addr".
func requireSession(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "missing bearer token"})
			return
		}
		token, err := jwt.Parse(raw,
			func(*jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid session"})
			return
		}
		addr, _ := token.Claims.(jwt.MapClaims)["addr"].(string)
		if addr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid session"})
			return
		}
		c.Set("addr", addr)
		c.Next()
	}
}
