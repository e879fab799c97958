package dto

import (
	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/model"
)

type CreateReferralRequest struct {
	ReferredEmail string `json:"referred_email" binding:"required,email"`
	// RewardPoints falls back to the configured default when omitted.
	RewardPoints int `json:"reward_points" binding:"omitempty,gt=0"`
}

type AttachRegistrationRequest struct {
	ReferredUserID uuid.UUID `json:"referred_user_id" binding:"required"`
}

type CompleteReferralRequest struct {
	SubscriptionPlan *string `json:"subscription_plan" binding:"omitempty,max=50"`
}

// SubscriptionActivatedRequest is posted by the subscription service when an
// invitee's first paid plan goes live; it auto-completes the pending referral.
type SubscriptionActivatedRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Plan   string    `json:"plan" binding:"required,max=50"`
}

type ReferralFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
	Search string `form:"search"`
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type PaginatedReferralResponse struct {
	Data []model.Referral `json:"data"`
	Meta PaginationMeta   `json:"meta"`
}

type ReferralStatsResponse struct {
	Total          int64         `json:"total"`
	Pending        int64         `json:"pending"`
	Completed      int64         `json:"completed"`
	Cancelled      int64         `json:"cancelled"`
	ConversionRate float64       `json:"conversion_rate"`
	TopReferrers   []TopReferrer `json:"top_referrers"`
}

type TopReferrer struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Completed int64     `json:"completed"`
}
