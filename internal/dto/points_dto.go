package dto

import (
	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/model"
)

type BalanceResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	CurrentPoints  int       `json:"current_points"`
	LifetimeEarned int       `json:"lifetime_earned"`
}

// LevelStatus is recomputed from the ledger on every read; it is never
// stored, so it cannot drift from the balance.
type LevelStatus struct {
	LevelNumber    int      `json:"level_number"`
	Name           string   `json:"name"`
	MinPoints      int      `json:"min_points"`
	MaxPoints      *int     `json:"max_points,omitempty"` // nil on the top tier
	Benefits       []string `json:"benefits"`
	CurrentPoints  int      `json:"current_points"`
	LifetimeEarned int      `json:"lifetime_earned"`
	NextLevel      *string  `json:"next_level,omitempty"`
	PointsNeeded   int      `json:"points_needed"`
	Progress       float64  `json:"progress"`
}

type PaginatedLedgerResponse struct {
	Data []model.LedgerEntry `json:"data"`
	Meta PaginationMeta      `json:"meta"`
}

type AdjustPointsRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Points int       `json:"points" binding:"required"` // positive credits, negative debits
	Note   string    `json:"note" binding:"required,max=255"`
}
