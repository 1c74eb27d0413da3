package webserver

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renzholy/voty/src/authorship"
	"github.com/renzholy/voty/src/chain"
)

func TestImportLimiter(t *testing.T) {
	l := newImportLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("0xaa"), "attempt %d", i)
	}
	assert.False(t, l.allow("0xaa"))

	// Keys track independent windows.
	assert.True(t, l.allow("0xbb"))
}

func TestImportLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/import", newImportLimiter(2, time.Minute).middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/import", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, statuses)
}

func TestSessionRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")

	r := gin.New()
	r.GET("/me", requireSession(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("addr"))
	})

	token, err := issueSession("0x00000000000000000000000000000000000000aa", secret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", w.Body.String())
}

func TestPlatformIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := authorship.NewSigner(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	auth := NewAuth(&Services{Signer: signer}, []byte("secret"))
	r := gin.New()
	r.GET("/platform", auth.Platform)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/platform?challenge=pin-me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, signer.Address(), out.Address)

	raw, err := base64.StdEncoding.DecodeString(out.Signature)
	require.NoError(t, err)
	assert.NoError(t, authorship.VerifyMessage(chain.CoinTypeEthereum, out.Address, raw, []byte("pin-me")))

	// Challenge is mandatory.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/platform", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Deployments without a key answer 404.
	noKey := NewAuth(&Services{}, []byte("secret"))
	r2 := gin.New()
	r2.GET("/platform", noKey.Platform)
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/platform?challenge=x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")

	r := gin.New()
	r.GET("/me", requireSession(secret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	foreign, err := issueSession("0xaa", []byte("another-secret"))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.token",
		"wrong secret": "Bearer " + foreign,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}
