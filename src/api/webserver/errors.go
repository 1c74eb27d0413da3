package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renzholy/voty/src/authorship"
	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/rules"
	"github.com/renzholy/voty/src/schema"
	"github.com/renzholy/voty/src/storage"
)

// writeError maps engine errors onto HTTP statuses. Malformed input is the
// client's fault, failed trust checks are forbidden, upstream chain trouble
// is a bad gateway, and everything else stays a 500 so internals never leak
// into responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schema.ErrValidation),
		errors.Is(err, schema.ErrMissingAuthorship),
		errors.Is(err, schema.ErrMalformedProof),
		errors.Is(err, schema.ErrEmptyChoice),
		errors.Is(err, schema.ErrMalformedChoice),
		errors.Is(err, schema.ErrMultiSelectNotAllowed),
		errors.Is(err, rules.ErrUnsupportedOperator),
		errors.Is(err, rules.ErrUnknownFunction),
		errors.Is(err, rules.ErrMalformedNode),
		errors.Is(err, rules.ErrEmptyMax),
		errors.Is(err, did.ErrMalformedDid),
		errors.Is(err, did.ErrUnsupportedDidScheme),
		errors.Is(err, chain.ErrUnsupportedCoinType),
		errors.Is(err, storage.ErrBadPermalink):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})

	case errors.Is(err, schema.ErrProofMismatch),
		errors.Is(err, authorship.ErrInvalidSignature),
		errors.Is(err, authorship.ErrAuthorshipMismatch),
		errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"err": err.Error()})

	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, did.ErrDidNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})

	case errors.Is(err, data.ErrDuplicateVote):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})

	case errors.Is(err, chain.ErrMissingSnapshot),
		errors.Is(err, errWrongPhase),
		errors.Is(err, errInconsistent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error()})

	case errors.Is(err, chain.ErrChainUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
	}
}

var (
	errForbidden    = errors.New("not allowed")
	errWrongPhase   = errors.New("operation not open in current phase")
	errInconsistent = errors.New("document references do not line up")
)
