package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusCancelled = "cancelled"
)

// Referral tracks one invitation. It leaves pending at most once:
// completed and cancelled are terminal. RewardGiven flips to true only
// after the referrer's credit has landed, in the same transaction as the
// status change.
type Referral struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerUserID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"referrer_user_id"`
	Referrer         User       `gorm:"foreignKey:ReferrerUserID" json:"-"`
	ReferredUserID   *uuid.UUID `gorm:"type:uuid;index" json:"referred_user_id,omitempty"`
	ReferredEmail    string     `gorm:"size:100;not null" json:"referred_email"`
	Status           string     `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	RewardPoints     int        `gorm:"not null" json:"reward_points"`
	RewardGiven      bool       `gorm:"not null;default:false" json:"reward_given"`
	SubscriptionPlan *string    `gorm:"size:50" json:"subscription_plan,omitempty"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
