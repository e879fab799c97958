package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/pkg/apperror"
)

// LedgerService is the single writer of point balance changes.
type LedgerService interface {
	Credit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error)
	Debit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error)
	// Adjust is the administrative path: positive points append a bonus
	// credit, negative points a spending-side adjustment.
	Adjust(ctx context.Context, req dto.AdjustPointsRequest) (*model.LedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (*dto.BalanceResponse, error)
	Level(ctx context.Context, userID uuid.UUID) (*dto.LevelStatus, error)
	History(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.PaginatedLedgerResponse, error)
}

type ledgerService struct {
	repo   repository.LedgerRepository
	levels []Level
}

func NewLedgerService(repo repository.LedgerRepository) LedgerService {
	return &ledgerService{repo: repo, levels: DefaultLevels}
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}
	return s.repo.Credit(ctx, userID, points, model.EntryTypeEarned, reason, referenceID)
}

func (s *ledgerService) Debit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}
	return s.repo.Debit(ctx, userID, points, reason, referenceID)
}

func (s *ledgerService) Adjust(ctx context.Context, req dto.AdjustPointsRequest) (*model.LedgerEntry, error) {
	if req.Points == 0 {
		return nil, apperror.ErrInvalidInput
	}

	if req.Points > 0 {
		return s.repo.Credit(ctx, req.UserID, req.Points, model.EntryTypeBonus, model.ReasonManualAdjustment, nil)
	}
	return s.repo.Debit(ctx, req.UserID, -req.Points, model.ReasonManualAdjustment, nil)
}

func (s *ledgerService) Balance(ctx context.Context, userID uuid.UUID) (*dto.BalanceResponse, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.BalanceResponse{
		UserID:         userID,
		CurrentPoints:  account.CurrentPoints,
		LifetimeEarned: account.LifetimeEarned,
	}, nil
}

func (s *ledgerService) Level(ctx context.Context, userID uuid.UUID) (*dto.LevelStatus, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := LevelStatusFor(account.CurrentPoints, account.LifetimeEarned, s.levels)
	return &status, nil
}

func (s *ledgerService) History(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.PaginatedLedgerResponse, error) {
	entries, total, err := s.repo.ListEntries(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedLedgerResponse{
		Data: entries,
		Meta: dto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			TotalItems:  total,
			Limit:       limit,
		},
	}, nil
}
