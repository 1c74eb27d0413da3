package data

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateVote = errors.New("data: author already voted on this proposal")

func putBlob(tx *gorm.DB, permalink string, blob []byte) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Storage{Permalink: permalink, Data: blob}).Error
}

// GetBlob returns the anchored document bytes for a permalink.
func GetBlob(db *gorm.DB, permalink string) ([]byte, error) {
	var row Storage
	if err := db.First(&row, "permalink = ?", permalink).Error; err != nil {
		return nil, err
	}
	return row.Data, nil
}

// PutCommunity stores the document blob and points the community entry at
// it. Re-importing the same entry replaces the previous pointer, so the
// newest anchored document wins.
func PutCommunity(db *gorm.DB, permalink, id string, ts time.Time, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, permalink, blob); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permalink", "ts"}),
		}).Create(&Community{ID: id, Permalink: permalink, TS: ts}).Error
	})
}

func PutGroup(db *gorm.DB, permalink, communityID, groupID string, ts time.Time, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, permalink, blob); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permalink", "ts"}),
		}).Create(&Group{
			CommunityID: communityID,
			GroupID:     groupID,
			Permalink:   permalink,
			TS:          ts,
		}).Error
	})
}

func DeleteGroup(db *gorm.DB, communityID, groupID string) error {
	return db.Delete(&Group{CommunityID: communityID, GroupID: groupID}).Error
}

func PutGroupProposal(db *gorm.DB, row *GroupProposal, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, row.Permalink, blob); err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&Community{}).Where("id = ?", row.CommunityID).
			UpdateColumn("group_proposals", gorm.Expr("group_proposals + 1")).Error
	})
}

func PutGrant(db *gorm.DB, row *Grant, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, row.Permalink, blob); err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&Community{}).Where("id = ?", row.CommunityID).
			UpdateColumn("grants", gorm.Expr("grants + 1")).Error
	})
}

func PutGrantProposal(db *gorm.DB, row *GrantProposal, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, row.Permalink, blob); err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&Grant{}).Where("permalink = ?", row.GrantPermalink).
			UpdateColumn("proposals", gorm.Expr("proposals + 1")).Error
	})
}

// PutVote records a vote and folds its power into the per-option tallies.
// counterModel is the proposal table whose vote counter should advance
// (&GroupProposal{} or &GrantProposal{}). A second vote by the same author
// on the same proposal fails with ErrDuplicateVote and leaves the tallies
// untouched.
func PutVote(db *gorm.DB, row *Vote, powers map[string]decimal.Decimal, counterModel interface{}, blob []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := putBlob(tx, row.Permalink, blob); err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateVote
			}
			return err
		}
		for option, power := range powers {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "proposal"}, {Name: "option"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"power": gorm.Expr("power + VALUES(power)")}),
			}).Create(&Choice{Proposal: row.Proposal, Option: option, Power: power}).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(counterModel).Where("permalink = ?", row.Proposal).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error
	})
}

// FillGroupProposalPhase writes the computed phase boundaries. Filling is
// idempotent: the anchor timestamp never changes, so repeated fills write
// the same values.
func FillGroupProposalPhase(db *gorm.DB, permalink string, ts time.Time, tsAnnouncing, tsVoting time.Time) error {
	return db.Model(&GroupProposal{}).Where("permalink = ?", permalink).
		UpdateColumns(map[string]interface{}{
			"ts":            ts,
			"ts_announcing": tsAnnouncing,
			"ts_voting":     tsVoting,
		}).Error
}

func FillGrantPhase(db *gorm.DB, permalink string, ts time.Time, tsAnnouncing, tsProposing, tsVoting time.Time) error {
	return db.Model(&Grant{}).Where("permalink = ?", permalink).
		UpdateColumns(map[string]interface{}{
			"ts":            ts,
			"ts_announcing": tsAnnouncing,
			"ts_proposing":  tsProposing,
			"ts_voting":     tsVoting,
		}).Error
}
