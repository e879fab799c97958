package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry types. Positive deltas are earned/bonus, negative are spent/adjustment.
const (
	EntryTypeEarned     = "earned"
	EntryTypeSpent      = "spent"
	EntryTypeBonus      = "bonus"
	EntryTypeAdjustment = "adjustment"
)

// Reasons attached to ledger entries. Reason + ReferenceID form the
// idempotency key for credits.
const (
	ReasonReferralCompletion  = "referral-completion"
	ReasonRedemption          = "redemption"
	ReasonRedemptionReversal  = "redemption-reversal"
	ReasonManualAdjustment    = "manual-adjustment"
	ReasonSubscriptionRenewal = "subscription-renewal"
)

// PointsAccount holds the running balance for a user. It is only ever
// written through ledger appends, inside the same transaction as the entry.
// CurrentPoints never goes negative and never exceeds LifetimeEarned.
type PointsAccount struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CurrentPoints  int       `gorm:"not null;default:0" json:"current_points"`
	LifetimeEarned int       `gorm:"not null;default:0" json:"lifetime_earned"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LedgerEntry is append-only; rows are never updated or deleted.
type LedgerEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index:idx_ledger_user_date,priority:1;not null" json:"user_id"`
	Type        string     `gorm:"size:20;not null" json:"type"`
	Points      int        `gorm:"not null" json:"points"`
	Reason      string     `gorm:"size:50;index:idx_ledger_reason_ref,priority:1;not null" json:"reason"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index:idx_ledger_reason_ref,priority:2" json:"reference_id,omitempty"`
	CreatedAt   time.Time  `gorm:"index:idx_ledger_user_date,priority:2" json:"created_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
