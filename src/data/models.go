package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// Storage holds the anchored documents themselves, keyed by permalink. The
// engine treats the blob as opaque; everything else in this file is derived
// index rows.
type Storage struct {
	Permalink string `gorm:"primaryKey;size:64"`
	Data      []byte `gorm:"type:mediumblob;not null"`
}

// Community indexes the latest anchored community document per entry DID.
type Community struct {
	ID             string `gorm:"primaryKey;size:128"` // entry DID
	Permalink      string `gorm:"size:64;not null"`
	TS             time.Time
	Grants         int64 `gorm:"default:0"`
	GroupProposals int64 `gorm:"default:0"`
}

// Group indexes the latest anchored group document per (community, id).
type Group struct {
	CommunityID string `gorm:"primaryKey;size:128"`
	GroupID     string `gorm:"primaryKey;size:128"`
	Permalink   string `gorm:"size:64;not null"`
	TS          time.Time
}

type GroupProposal struct {
	Permalink      string    `gorm:"primaryKey;size:64"`
	CommunityID    string    `gorm:"index;size:128;not null"`
	GroupID        string    `gorm:"index;size:128;not null"`
	GroupPermalink string    `gorm:"size:64;not null"`
	TS             time.Time `gorm:"index"`
	TSAnnouncing   *time.Time
	TSVoting       *time.Time
	Votes          int64 `gorm:"default:0"`
}

type Grant struct {
	Permalink          string    `gorm:"primaryKey;size:64"`
	CommunityID        string    `gorm:"index;size:128;not null"`
	CommunityPermalink string    `gorm:"size:64;not null"`
	TS                 time.Time `gorm:"index"`
	TSAnnouncing       *time.Time
	TSProposing        *time.Time
	TSVoting           *time.Time
	Proposals          int64 `gorm:"default:0"`
}

type GrantProposal struct {
	Permalink      string    `gorm:"primaryKey;size:64"`
	GrantPermalink string    `gorm:"index;size:64;not null"`
	CommunityID    string    `gorm:"index;size:128;not null"`
	TS             time.Time `gorm:"index"`
	Votes          int64     `gorm:"default:0"`
}

type Vote struct {
	Permalink string    `gorm:"primaryKey;size:64"`
	Proposal  string    `gorm:"size:64;not null;uniqueIndex:idx_votes_proposal_author,priority:1;index"`
	Author    string    `gorm:"size:128;not null;uniqueIndex:idx_votes_proposal_author,priority:2"`
	TS        time.Time `gorm:"index"`
}

// Choice accumulates voting power per (proposal, option). Rows only ever
// grow by atomic increments.
type Choice struct {
	Proposal string          `gorm:"primaryKey;size:64"`
	Option   string          `gorm:"primaryKey;size:256"`
	Power    decimal.Decimal `gorm:"type:decimal(65,18);not null"`
}

// Subscription records a wallet following a community.
type Subscription struct {
	Address     string `gorm:"primaryKey;size:128"`
	CommunityID string `gorm:"primaryKey;size:128"`
	TS          time.Time
}

// Setting is one row of the key-value settings table read once at startup.
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

func Models() []interface{} {
	return []interface{}{
		&Storage{}, &Community{}, &Group{}, &GroupProposal{},
		&Grant{}, &GrantProposal{}, &Vote{}, &Choice{},
		&Subscription{}, &Setting{},
	}
}
