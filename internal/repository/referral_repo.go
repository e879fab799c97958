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

// ReferralQuery filters the admin/client referral listings.
type ReferralQuery struct {
	ReferrerUserID *uuid.UUID
	Status         string
	Search         string
	From           *time.Time
	To             *time.Time
	Page           int
	Limit          int
}

// StatusCount is one row of the per-status referral breakdown.
type StatusCount struct {
	Status string
	Total  int64
}

// TopReferrer aggregates completed referrals per referrer.
type TopReferrer struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Completed int64     `json:"completed"`
}

type ReferralRepository interface {
	Create(ctx context.Context, referral *model.Referral) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Referral, error)
	FindPendingByReferredUser(ctx context.Context, userID uuid.UUID) (*model.Referral, error)
	AttachRegistration(ctx context.Context, id, referredUserID uuid.UUID) (*model.Referral, error)
	Complete(ctx context.Context, id uuid.UUID, subscriptionPlan *string) (*model.Referral, error)
	Cancel(ctx context.Context, id uuid.UUID) (*model.Referral, error)
	List(ctx context.Context, q ReferralQuery) ([]model.Referral, int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	TopReferrers(ctx context.Context, limit int) ([]TopReferrer, error)
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, referral *model.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *referralRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	var referral model.Referral
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&referral).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &referral, nil
}

func (r *referralRepository) FindPendingByReferredUser(ctx context.Context, userID uuid.UUID) (*model.Referral, error) {
	var referral model.Referral
	if err := r.db.WithContext(ctx).
		Where("referred_user_id = ? AND status = ?", userID, model.ReferralStatusPending).
		First(&referral).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &referral, nil
}

func (r *referralRepository) AttachRegistration(ctx context.Context, id, referredUserID uuid.UUID) (*model.Referral, error) {
	var referral *model.Referral
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref model.Referral
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&ref).Error; err != nil {
			return translateNotFound(err)
		}

		if ref.Status != model.ReferralStatusPending {
			return apperror.ErrInvalidTransition
		}

		if err := tx.Model(&ref).Update("referred_user_id", referredUserID).Error; err != nil {
			return err
		}

		ref.ReferredUserID = &referredUserID
		referral = &ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

// Complete moves a pending referral to completed and credits the referrer in
// the same transaction. If the credit fails, the status change rolls back
// with it; reward_given is only ever true with the entry in place.
func (r *referralRepository) Complete(ctx context.Context, id uuid.UUID, subscriptionPlan *string) (*model.Referral, error) {
	var referral *model.Referral
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref model.Referral
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&ref).Error; err != nil {
			return translateNotFound(err)
		}

		if ref.Status != model.ReferralStatusPending {
			return apperror.ErrInvalidTransition
		}

		refID := ref.ID
		if _, err := applyCredit(tx, ref.ReferrerUserID, ref.RewardPoints,
			model.EntryTypeEarned, model.ReasonReferralCompletion, &refID); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       model.ReferralStatusCompleted,
			"completed_at": now,
			"reward_given": true,
		}
		if subscriptionPlan != nil {
			updates["subscription_plan"] = *subscriptionPlan
		}
		if err := tx.Model(&ref).Updates(updates).Error; err != nil {
			return err
		}

		ref.Status = model.ReferralStatusCompleted
		ref.CompletedAt = &now
		ref.RewardGiven = true
		ref.SubscriptionPlan = subscriptionPlan
		referral = &ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

func (r *referralRepository) Cancel(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	var referral *model.Referral
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref model.Referral
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&ref).Error; err != nil {
			return translateNotFound(err)
		}

		if ref.Status != model.ReferralStatusPending {
			return apperror.ErrInvalidTransition
		}

		if err := tx.Model(&ref).Update("status", model.ReferralStatusCancelled).Error; err != nil {
			return err
		}

		ref.Status = model.ReferralStatusCancelled
		referral = &ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

func (r *referralRepository) List(ctx context.Context, q ReferralQuery) ([]model.Referral, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Referral{})

	if q.ReferrerUserID != nil {
		query = query.Where("referrer_user_id = ?", *q.ReferrerUserID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("referred_email ILIKE ?", "%"+q.Search+"%")
	}
	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at < ?", *q.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var referrals []model.Referral
	if err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&referrals).Error; err != nil {
		return nil, 0, err
	}

	return referrals, total, nil
}

func (r *referralRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).Model(&model.Referral{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *referralRepository) TopReferrers(ctx context.Context, limit int) ([]TopReferrer, error) {
	var top []TopReferrer
	err := r.db.WithContext(ctx).Model(&model.Referral{}).
		Select("referrals.referrer_user_id as user_id, users.username, COUNT(*) as completed").
		Joins("JOIN users ON users.id = referrals.referrer_user_id").
		Where("referrals.status = ?", model.ReferralStatusCompleted).
		Group("referrals.referrer_user_id, users.username").
		Order("completed DESC").
		Limit(limit).
		Scan(&top).Error
	return top, err
}
