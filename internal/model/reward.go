package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RewardCategoryDiscount = "discount"
	RewardCategoryProduct  = "product"
	RewardCategoryService  = "service"
	RewardCategoryPremium  = "premium"
)

const (
	AvailabilityAvailable   = "available"
	AvailabilityLimited     = "limited"
	AvailabilityUnavailable = "unavailable"
)

// LowStockThreshold marks a reward as "limited" when stock falls to this
// level or below.
const LowStockThreshold = 5

type Reward struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"size:150;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	PointsCost    int        `gorm:"not null" json:"points_cost"`
	Category      string     `gorm:"size:20;index;not null" json:"category"`
	Value         string     `gorm:"size:50" json:"value"`
	Stock         *int       `json:"stock,omitempty"` // nil = unlimited
	Active        bool       `gorm:"not null;default:true" json:"active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Terms         []string   `gorm:"serializer:json" json:"terms"`
	ImageURL      *string    `gorm:"type:text" json:"image_url,omitempty"`
	TotalRedeemed int        `gorm:"not null;default:0" json:"total_redeemed"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Live reports whether the reward is active and not expired. Stock is
// checked separately: running out is an out-of-stock failure, not an
// unavailable one.
func (r *Reward) Live(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Redeemable reports whether the reward can be redeemed right now.
func (r *Reward) Redeemable(now time.Time) bool {
	if !r.Live(now) {
		return false
	}
	if r.Stock != nil && *r.Stock <= 0 {
		return false
	}
	return true
}

// Availability derives the catalog label shown next to the reward.
func (r *Reward) Availability(now time.Time) string {
	if !r.Redeemable(now) {
		return AvailabilityUnavailable
	}
	if r.Stock != nil && *r.Stock <= LowStockThreshold {
		return AvailabilityLimited
	}
	return AvailabilityAvailable
}

const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusApproved  = "approved"
	RedemptionStatusUsed      = "used"
	RedemptionStatusExpired   = "expired"
	RedemptionStatusCancelled = "cancelled"
)

// Redemption freezes PointsSpent at creation time; later price edits on the
// reward never touch it. Its existence implies a matching negative ledger
// entry written in the same transaction.
type Redemption struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	RewardID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"reward_id"`
	Reward      Reward     `gorm:"foreignKey:RewardID" json:"reward"`
	PointsSpent int        `gorm:"not null" json:"points_spent"`
	Status      string     `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	Code        string     `gorm:"size:20;uniqueIndex;not null" json:"code"`
	RedeemedAt  time.Time  `gorm:"autoCreateTime" json:"redeemed_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`
}

func (r *Redemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
