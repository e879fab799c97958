package dto

import (
	"time"

	"uniplay.tv/loyalty/internal/model"
)

type CreateRewardRequest struct {
	Title       string     `json:"title" binding:"required,max=150"`
	Description string     `json:"description" binding:"max=2000"`
	PointsCost  int        `json:"points_cost" binding:"required,gt=0"`
	Category    string     `json:"category" binding:"required,oneof=discount product service premium"`
	Value       string     `json:"value" binding:"max=50"`
	Stock       *int       `json:"stock" binding:"omitempty,min=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Terms       []string   `json:"terms" binding:"omitempty,dive,max=255"`
	Active      *bool      `json:"active"`
}

type UpdateRewardRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=150"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	PointsCost  *int       `json:"points_cost" binding:"omitempty,gt=0"`
	Category    *string    `json:"category" binding:"omitempty,oneof=discount product service premium"`
	Value       *string    `json:"value" binding:"omitempty,max=50"`
	Stock       *int       `json:"stock" binding:"omitempty,min=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Terms       []string   `json:"terms" binding:"omitempty,dive,max=255"`
}

type RewardCatalogFilter struct {
	Category string `form:"category" binding:"omitempty,oneof=discount product service premium"`
	Search   string `form:"search"`
}

// RewardResponse decorates the stored reward with its derived availability.
type RewardResponse struct {
	model.Reward
	Availability string `json:"availability"`
}

type RedemptionFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved used expired cancelled"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type PaginatedRedemptionResponse struct {
	Data []model.Redemption `json:"data"`
	Meta PaginationMeta     `json:"meta"`
}
