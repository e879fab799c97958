package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/pkg/apperror"
)

type RedemptionRepository interface {
	// Redeem commits the stock decrement, the ledger debit and the
	// redemption insert as one transaction. The caller fills UserID,
	// RewardID, Status, Code and ExpiresAt; PointsSpent is frozen here from
	// the reward's current cost, read under lock.
	Redeem(ctx context.Context, redemption *model.Redemption) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Redemption, int64, error)
	Approve(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	// Reverse cancels or expires a pending/approved redemption, crediting
	// the points back and restoring stock in the same transaction.
	Reverse(ctx context.Context, id uuid.UUID, toStatus string) (*model.Redemption, error)
	ListOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type redemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) Redeem(ctx context.Context, redemption *model.Redemption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read the reward under lock so the frozen price and the
		// availability check cannot race with a concurrent admin edit.
		var reward model.Reward
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", redemption.RewardID).
			First(&reward).Error; err != nil {
			return translateNotFound(err)
		}

		// Only active/expiry here: stock is settled by the conditional
		// UPDATE below, so the race loser on the last unit reads as
		// out-of-stock, never as unavailable.
		if !reward.Live(time.Now()) {
			return apperror.ErrRewardUnavailable
		}

		ok, err := decrementStock(tx, reward.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrOutOfStock
		}

		if redemption.ID == uuid.Nil {
			redemption.ID = uuid.New()
		}
		redemption.PointsSpent = reward.PointsCost

		redemptionID := redemption.ID
		if _, err := applyDebit(tx, redemption.UserID, reward.PointsCost,
			model.EntryTypeSpent, model.ReasonRedemption, &redemptionID); err != nil {
			return err
		}

		return tx.Create(redemption).Error
	})
}

func (r *redemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	var redemption model.Redemption
	if err := r.db.WithContext(ctx).
		Preload("Reward").
		Where("id = ?", id).
		First(&redemption).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &redemption, nil
}

func (r *redemptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	var redemptions []model.Redemption
	if err := r.db.WithContext(ctx).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("redeemed_at DESC").
		Find(&redemptions).Error; err != nil {
		return nil, err
	}
	return redemptions, nil
}

func (r *redemptionRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Redemption, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Redemption{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var redemptions []model.Redemption
	if err := query.
		Preload("Reward").
		Order("redeemed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}

	return redemptions, total, nil
}

func (r *redemptionRepository) Approve(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	return r.transition(ctx, id, []string{model.RedemptionStatusPending}, model.RedemptionStatusApproved, nil)
}

func (r *redemptionRepository) MarkUsed(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	now := time.Now()
	return r.transition(ctx, id, []string{model.RedemptionStatusApproved}, model.RedemptionStatusUsed, &now)
}

func (r *redemptionRepository) transition(ctx context.Context, id uuid.UUID, from []string, to string, usedAt *time.Time) (*model.Redemption, error) {
	var redemption *model.Redemption
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var red model.Redemption
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&red).Error; err != nil {
			return translateNotFound(err)
		}

		allowed := false
		for _, s := range from {
			if red.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperror.ErrInvalidTransition
		}

		updates := map[string]interface{}{"status": to}
		if usedAt != nil {
			updates["used_at"] = *usedAt
		}
		if err := tx.Model(&red).Updates(updates).Error; err != nil {
			return err
		}

		red.Status = to
		red.UsedAt = usedAt
		redemption = &red
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

func (r *redemptionRepository) Reverse(ctx context.Context, id uuid.UUID, toStatus string) (*model.Redemption, error) {
	var redemption *model.Redemption
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var red model.Redemption
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&red).Error; err != nil {
			return translateNotFound(err)
		}

		if red.Status != model.RedemptionStatusPending && red.Status != model.RedemptionStatusApproved {
			return apperror.ErrInvalidTransition
		}

		// Compensation: credit the points back and put the unit back on the
		// shelf. The credit is keyed by the redemption id, so a retried
		// reversal can never pay twice.
		redemptionID := red.ID
		if _, err := applyCredit(tx, red.UserID, red.PointsSpent,
			model.EntryTypeAdjustment, model.ReasonRedemptionReversal, &redemptionID); err != nil {
			return err
		}

		if err := restoreStock(tx, red.RewardID); err != nil {
			return err
		}

		if err := tx.Model(&red).Update("status", toStatus).Error; err != nil {
			return err
		}

		red.Status = toStatus
		redemption = &red
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

func (r *redemptionRepository) ListOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Redemption{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]string{model.RedemptionStatusPending, model.RedemptionStatusApproved}, now).
		Pluck("id", &ids).Error
	return ids, err
}
