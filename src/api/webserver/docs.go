package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/rules"
	"github.com/renzholy/voty/src/schema"
)

const maxDocumentSize = 1 << 20

// bindDocument reads the raw request body and decodes it. The raw bytes are
// what gets anchored, so the permalink covers exactly what the author signed.
func bindDocument(c *gin.Context, doc interface{}) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrValidation, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: document too large", schema.ErrValidation)
	}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrValidation, err)
	}
	return body, nil
}

// loadDocument fetches an anchored document, preferring the local storage
// table and falling back to the network for documents anchored elsewhere.
func (s *Services) loadDocument(ctx context.Context, permalink string, doc interface{}) error {
	blob, err := data.GetBlob(s.DB, permalink)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		blob, err = s.Network.Fetch(ctx, permalink)
		if err != nil {
			return err
		}
	}
	if err := json.Unmarshal(blob, doc); err != nil {
		return fmt.Errorf("%w: %s: %v", errInconsistent, permalink, err)
	}
	return nil
}

func (s *Services) rulesEnv() rules.Env {
	return rules.Env{Did: s.Dids, Balances: s.Chains}
}

// groupProposalBoundaries returns the proposal's phase boundaries, filling
// them from the storage anchor on first successful resolution. A failed fill
// leaves the proposal confirming; the next read retries.
func (s *Services) groupProposalBoundaries(ctx context.Context, row *data.GroupProposal, duration schema.GroupDuration) phase.Boundaries {
	if row.TSAnnouncing != nil && row.TSVoting != nil {
		ts := row.TS
		return phase.Boundaries{TS: &ts, TSAnnouncing: row.TSAnnouncing, TSVoting: row.TSVoting}
	}
	ts, err := s.Filler.AnchorTime(ctx, row.Permalink)
	if err != nil {
		log.Printf("phase fill %s: %v", row.Permalink, err)
		return phase.Boundaries{}
	}
	b := phase.ForGroupProposal(ts, duration)
	if err := data.FillGroupProposalPhase(s.DB, row.Permalink, ts, *b.TSAnnouncing, *b.TSVoting); err != nil {
		log.Printf("phase fill %s: %v", row.Permalink, err)
	}
	return b
}

func (s *Services) grantBoundaries(ctx context.Context, row *data.Grant, duration schema.GrantDuration) phase.Boundaries {
	if row.TSAnnouncing != nil && row.TSProposing != nil && row.TSVoting != nil {
		ts := row.TS
		return phase.Boundaries{TS: &ts, TSAnnouncing: row.TSAnnouncing, TSProposing: row.TSProposing, TSVoting: row.TSVoting}
	}
	ts, err := s.Filler.AnchorTime(ctx, row.Permalink)
	if err != nil {
		log.Printf("phase fill %s: %v", row.Permalink, err)
		return phase.Boundaries{}
	}
	b := phase.ForGrant(ts, duration)
	if err := data.FillGrantPhase(s.DB, row.Permalink, ts, *b.TSAnnouncing, *b.TSProposing, *b.TSVoting); err != nil {
		log.Printf("phase fill %s: %v", row.Permalink, err)
	}
	return b
}
