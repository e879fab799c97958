package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/pkg/apperror"
)

// ReferralService owns the referral state machine: pending -> completed
// (credits the referrer) or pending -> cancelled. Both end states are
// terminal.
type ReferralService interface {
	Create(ctx context.Context, referrerID uuid.UUID, req dto.CreateReferralRequest) (*model.Referral, error)
	AttachRegistration(ctx context.Context, referralID, referredUserID uuid.UUID) (*model.Referral, error)
	Complete(ctx context.Context, referralID uuid.UUID, subscriptionPlan *string) (*model.Referral, error)
	Cancel(ctx context.Context, referralID uuid.UUID) (*model.Referral, error)
	// OnSubscriptionActivated auto-completes the invitee's pending referral
	// when the subscription service reports their first paid plan.
	OnSubscriptionActivated(ctx context.Context, req dto.SubscriptionActivatedRequest) (*model.Referral, error)
	List(ctx context.Context, referrerID *uuid.UUID, filter dto.ReferralFilter) (*dto.PaginatedReferralResponse, error)
	Stats(ctx context.Context) (*dto.ReferralStatsResponse, error)
}

type referralService struct {
	repo                repository.ReferralRepository
	userRepo            repository.UserRepository
	defaultRewardPoints int
}

func NewReferralService(repo repository.ReferralRepository, userRepo repository.UserRepository, defaultRewardPoints int) ReferralService {
	return &referralService{
		repo:                repo,
		userRepo:            userRepo,
		defaultRewardPoints: defaultRewardPoints,
	}
}

func (s *referralService) Create(ctx context.Context, referrerID uuid.UUID, req dto.CreateReferralRequest) (*model.Referral, error) {
	referrer, err := s.userRepo.FindByID(ctx, referrerID.String())
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(referrer.Email, req.ReferredEmail) {
		return nil, apperror.ErrInvalidInput
	}

	rewardPoints := req.RewardPoints
	if rewardPoints == 0 {
		rewardPoints = s.defaultRewardPoints
	}

	referral := &model.Referral{
		ReferrerUserID: referrerID,
		ReferredEmail:  strings.ToLower(req.ReferredEmail),
		Status:         model.ReferralStatusPending,
		RewardPoints:   rewardPoints,
	}

	if err := s.repo.Create(ctx, referral); err != nil {
		return nil, err
	}

	return referral, nil
}

func (s *referralService) AttachRegistration(ctx context.Context, referralID, referredUserID uuid.UUID) (*model.Referral, error) {
	return s.repo.AttachRegistration(ctx, referralID, referredUserID)
}

func (s *referralService) Complete(ctx context.Context, referralID uuid.UUID, subscriptionPlan *string) (*model.Referral, error) {
	return s.repo.Complete(ctx, referralID, subscriptionPlan)
}

func (s *referralService) Cancel(ctx context.Context, referralID uuid.UUID) (*model.Referral, error) {
	return s.repo.Cancel(ctx, referralID)
}

func (s *referralService) OnSubscriptionActivated(ctx context.Context, req dto.SubscriptionActivatedRequest) (*model.Referral, error) {
	referral, err := s.repo.FindPendingByReferredUser(ctx, req.UserID)
	if err != nil {
		// No pending referral for this subscriber; nothing to complete.
		return nil, err
	}

	plan := req.Plan
	return s.repo.Complete(ctx, referral.ID, &plan)
}

func (s *referralService) List(ctx context.Context, referrerID *uuid.UUID, filter dto.ReferralFilter) (*dto.PaginatedReferralResponse, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 10
	}

	query := repository.ReferralQuery{
		ReferrerUserID: referrerID,
		Status:         filter.Status,
		Search:         filter.Search,
		Page:           filter.Page,
		Limit:          filter.Limit,
	}

	if filter.From != "" {
		from, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, apperror.ErrInvalidInput
		}
		query.From = &from
	}
	if filter.To != "" {
		to, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, apperror.ErrInvalidInput
		}
		// Inclusive upper bound: the whole "to" day.
		to = to.AddDate(0, 0, 1)
		query.To = &to
	}

	referrals, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedReferralResponse{
		Data: referrals,
		Meta: dto.PaginationMeta{
			CurrentPage: filter.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
			TotalItems:  total,
			Limit:       filter.Limit,
		},
	}, nil
}

func (s *referralService) Stats(ctx context.Context) (*dto.ReferralStatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.ReferralStatsResponse{}
	for _, c := range counts {
		switch c.Status {
		case model.ReferralStatusPending:
			stats.Pending = c.Total
		case model.ReferralStatusCompleted:
			stats.Completed = c.Total
		case model.ReferralStatusCancelled:
			stats.Cancelled = c.Total
		}
	}
	stats.Total = stats.Pending + stats.Completed + stats.Cancelled

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.ConversionRate = math.Round(rate*100) / 100
	}

	top, err := s.repo.TopReferrers(ctx, 5)
	if err != nil {
		return nil, err
	}
	for _, t := range top {
		stats.TopReferrers = append(stats.TopReferrers, dto.TopReferrer{
			UserID:    t.UserID,
			Username:  t.Username,
			Completed: t.Completed,
		})
	}

	return stats, nil
}
