package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/pkg/apperror"
)

// voucherCharset leaves out 0/O and 1/I so support staff can read codes
// back over chat.
const voucherCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RedemptionService orchestrates a redemption: it validates balance and
// stock, then hands the stock decrement, ledger debit and redemption insert
// to the repository as one atomic unit.
type RedemptionService interface {
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*model.Redemption, error)
	MyRedemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
	List(ctx context.Context, filter dto.RedemptionFilter) (*dto.PaginatedRedemptionResponse, error)
	Approve(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	Reject(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	// ExpireOverdue sweeps pending/approved redemptions past their expiry,
	// reversing each one. Returns how many were expired.
	ExpireOverdue(ctx context.Context) (int, error)
}

type redemptionService struct {
	repo       repository.RedemptionRepository
	rewardRepo repository.RewardRepository
	ledgerRepo repository.LedgerRepository
	rdb        *redis.Client
	redeemTTL  time.Duration
	rateLimit  time.Duration
}

func NewRedemptionService(
	repo repository.RedemptionRepository,
	rewardRepo repository.RewardRepository,
	ledgerRepo repository.LedgerRepository,
	rdb *redis.Client,
	redeemTTL time.Duration,
	rateLimit time.Duration,
) RedemptionService {
	return &redemptionService{
		repo:       repo,
		rewardRepo: rewardRepo,
		ledgerRepo: ledgerRepo,
		rdb:        rdb,
		redeemTTL:  redeemTTL,
		rateLimit:  rateLimit,
	}
}

func (s *redemptionService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*model.Redemption, error) {
	allowed, err := s.checkRedeemRateLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	redemption, err := s.redeem(ctx, userID, rewardID)
	if err != nil {
		// A failed attempt should not burn the rate limit window.
		s.clearRedeemRateLimit(ctx, userID)
		return nil, err
	}

	return redemption, nil
}

func (s *redemptionService) redeem(ctx context.Context, userID, rewardID uuid.UUID) (*model.Redemption, error) {
	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !reward.Live(now) {
		return nil, apperror.ErrRewardUnavailable
	}
	if reward.Stock != nil && *reward.Stock <= 0 {
		return nil, apperror.ErrOutOfStock
	}

	// Pre-check so the common failure is cheap; the transaction re-checks
	// under the account lock.
	account, err := s.ledgerRepo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.CurrentPoints < reward.PointsCost {
		return nil, apperror.ErrInsufficientPoints
	}

	code, err := generateVoucherCode(10)
	if err != nil {
		return nil, err
	}

	redemption := &model.Redemption{
		ID:        uuid.New(),
		UserID:    userID,
		RewardID:  rewardID,
		Status:    initialStatus(reward.Category),
		Code:      code,
		ExpiresAt: s.redemptionExpiry(reward, now),
	}

	if err := s.repo.Redeem(ctx, redemption); err != nil {
		return nil, err
	}

	redemption.Reward = *reward
	return redemption, nil
}

// initialStatus applies the per-category approval policy: discounts and
// premium unlocks activate straight away, physical goods and manual
// services wait for staff.
func initialStatus(category string) string {
	switch category {
	case model.RewardCategoryDiscount, model.RewardCategoryPremium:
		return model.RedemptionStatusApproved
	default:
		return model.RedemptionStatusPending
	}
}

// redemptionExpiry derives the voucher validity window, capped by the
// reward's own expiry when that comes sooner.
func (s *redemptionService) redemptionExpiry(reward *model.Reward, now time.Time) *time.Time {
	expiry := now.Add(s.redeemTTL)
	if reward.ExpiresAt != nil && reward.ExpiresAt.Before(expiry) {
		expiry = *reward.ExpiresAt
	}
	return &expiry
}

func (s *redemptionService) MyRedemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *redemptionService) List(ctx context.Context, filter dto.RedemptionFilter) (*dto.PaginatedRedemptionResponse, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 10
	}

	redemptions, total, err := s.repo.ListByStatus(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedRedemptionResponse{
		Data: redemptions,
		Meta: dto.PaginationMeta{
			CurrentPage: filter.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
			TotalItems:  total,
			Limit:       filter.Limit,
		},
	}, nil
}

func (s *redemptionService) Approve(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	return s.repo.Approve(ctx, id)
}

func (s *redemptionService) Reject(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	return s.repo.Reverse(ctx, id, model.RedemptionStatusCancelled)
}

func (s *redemptionService) MarkUsed(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	return s.repo.MarkUsed(ctx, id)
}

func (s *redemptionService) ExpireOverdue(ctx context.Context) (int, error) {
	ids, err := s.repo.ListOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if _, err := s.repo.Reverse(ctx, id, model.RedemptionStatusExpired); err != nil {
			if err == apperror.ErrInvalidTransition {
				// Another writer already closed it out.
				continue
			}
			// A failed compensation breaks the ledger invariant; it must
			// surface for manual reconciliation, never be swallowed.
			log.Printf("RECONCILE: failed to expire redemption %s: %v", id, err)
			continue
		}
		expired++
	}

	return expired, nil
}

func (s *redemptionService) checkRedeemRateLimit(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:redeem", userID.String())
	wasSet, err := s.rdb.SetNX(ctx, key, "locked", s.rateLimit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func (s *redemptionService) clearRedeemRateLimit(ctx context.Context, userID uuid.UUID) {
	if s.rdb == nil {
		return
	}

	key := fmt.Sprintf("rate_limit:user:%s:redeem", userID.String())
	if _, err := s.rdb.Del(ctx, key).Result(); err != nil {
		log.Printf("Failed to clear redeem rate limit for user %s: %v", userID, err)
	}
}

func generateVoucherCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(voucherCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate voucher code: %w", err)
		}
		code[i] = voucherCharset[n.Int64()]
	}
	return string(code), nil
}
