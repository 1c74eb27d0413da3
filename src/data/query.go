package data

import (
	"time"

	"github.com/renzholy/voty/src/phase"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPageSize = 30

// keyset applies cursor pagination over (ts, permalink) descending. The
// cursor is the permalink of the last row of the previous page.
func keyset(db *gorm.DB, q *gorm.DB, table, cursor string, limit int) *gorm.DB {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	if cursor != "" {
		sub := db.Table(table).Select("ts").Where("permalink = ?", cursor)
		q = q.Where("(ts < (?)) OR (ts = (?) AND permalink < ?)", sub, sub, cursor)
	}
	return q.Order("ts DESC, permalink DESC").Limit(limit)
}

func GetCommunity(db *gorm.DB, id string) (*Community, error) {
	var row Community
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func ListCommunities(db *gorm.DB, cursor string, limit int) ([]Community, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	q := db.Model(&Community{})
	if cursor != "" {
		sub := db.Table("communities").Select("ts").Where("id = ?", cursor)
		q = q.Where("(ts < (?)) OR (ts = (?) AND id < ?)", sub, sub, cursor)
	}
	var rows []Community
	err := q.Order("ts DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func GetGroup(db *gorm.DB, communityID, groupID string) (*Group, error) {
	var row Group
	err := db.First(&row, "community_id = ? AND group_id = ?", communityID, groupID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func ListGroups(db *gorm.DB, communityID string) ([]Group, error) {
	var rows []Group
	err := db.Where("community_id = ?", communityID).Order("group_id").Find(&rows).Error
	return rows, err
}

func GetGroupProposal(db *gorm.DB, permalink string) (*GroupProposal, error) {
	var row GroupProposal
	if err := db.First(&row, "permalink = ?", permalink).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListGroupProposals filters by community, optionally by group, and
// optionally by the phase the proposal is in at `now`.
func ListGroupProposals(db *gorm.DB, communityID, groupID string, ph phase.Phase, now time.Time, cursor string, limit int) ([]GroupProposal, error) {
	q := db.Model(&GroupProposal{}).Where("community_id = ?", communityID)
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	switch ph {
	case phase.Confirming:
		q = q.Where("ts_announcing IS NULL")
	case phase.Announcing:
		q = q.Where("ts_announcing > ?", now)
	case phase.Voting:
		q = q.Where("ts_announcing <= ? AND ts_voting > ?", now, now)
	case phase.Ended:
		q = q.Where("ts_voting <= ?", now)
	}
	var rows []GroupProposal
	err := keyset(db, q, "group_proposals", cursor, limit).Find(&rows).Error
	return rows, err
}

func GetGrant(db *gorm.DB, permalink string) (*Grant, error) {
	var row Grant
	if err := db.First(&row, "permalink = ?", permalink).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func ListGrants(db *gorm.DB, communityID string, ph phase.Phase, now time.Time, cursor string, limit int) ([]Grant, error) {
	q := db.Model(&Grant{}).Where("community_id = ?", communityID)
	switch ph {
	case phase.Confirming:
		q = q.Where("ts_announcing IS NULL")
	case phase.Announcing:
		q = q.Where("ts_announcing > ?", now)
	case phase.Proposing:
		q = q.Where("ts_announcing <= ? AND ts_proposing > ?", now, now)
	case phase.Voting:
		q = q.Where("ts_proposing <= ? AND ts_voting > ?", now, now)
	case phase.Ended:
		q = q.Where("ts_voting <= ?", now)
	}
	var rows []Grant
	err := keyset(db, q, "grants", cursor, limit).Find(&rows).Error
	return rows, err
}

func GetGrantProposal(db *gorm.DB, permalink string) (*GrantProposal, error) {
	var row GrantProposal
	if err := db.First(&row, "permalink = ?", permalink).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func ListGrantProposals(db *gorm.DB, grantPermalink, cursor string, limit int) ([]GrantProposal, error) {
	q := db.Model(&GrantProposal{}).Where("grant_permalink = ?", grantPermalink)
	var rows []GrantProposal
	err := keyset(db, q, "grant_proposals", cursor, limit).Find(&rows).Error
	return rows, err
}

func ListVotes(db *gorm.DB, proposal, cursor string, limit int) ([]Vote, error) {
	q := db.Model(&Vote{}).Where("proposal = ?", proposal)
	var rows []Vote
	err := keyset(db, q, "votes", cursor, limit).Find(&rows).Error
	return rows, err
}

// ListChoices returns the accumulated power per option for a proposal.
func ListChoices(db *gorm.DB, proposal string) ([]Choice, error) {
	var rows []Choice
	err := db.Where("proposal = ?", proposal).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "option"}}).
		Find(&rows).Error
	return rows, err
}

func Subscribe(db *gorm.DB, addr, communityID string, ts time.Time) error {
	return db.Where(Subscription{Address: addr, CommunityID: communityID}).
		Attrs(Subscription{TS: ts}).
		FirstOrCreate(&Subscription{}).Error
}

func Unsubscribe(db *gorm.DB, addr, communityID string) error {
	return db.Delete(&Subscription{Address: addr, CommunityID: communityID}).Error
}

func ListSubscriptions(db *gorm.DB, addr string) ([]Subscription, error) {
	var rows []Subscription
	err := db.Where("address = ?", addr).Order("ts DESC").Find(&rows).Error
	return rows, err
}
