package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uniplay.tv/loyalty/internal/model"
)

type RewardRepository interface {
	Create(ctx context.Context, reward *model.Reward) error
	Save(ctx context.Context, reward *model.Reward) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error)
	FindAll(ctx context.Context, category string, onlyActive bool) ([]model.Reward, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetImageURL(ctx context.Context, id uuid.UUID, url string) error
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Create(ctx context.Context, reward *model.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *rewardRepository) Save(ctx context.Context, reward *model.Reward) error {
	return r.db.WithContext(ctx).Save(reward).Error
}

func (r *rewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	var reward model.Reward
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reward).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &reward, nil
}

func (r *rewardRepository) FindAll(ctx context.Context, category string, onlyActive bool) ([]model.Reward, error) {
	query := r.db.WithContext(ctx).Model(&model.Reward{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if onlyActive {
		query = query.Where("active = ?", true)
	}

	var rewards []model.Reward
	if err := query.Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *rewardRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Reward{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *rewardRepository) SetImageURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).Model(&model.Reward{}).
		Where("id = ?", id).
		Update("image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// decrementStock is the sole stock mutation. It is a single conditional
// UPDATE so two redemptions racing for the last unit cannot both pass:
// exactly one row update wins. NULL stock means unlimited and always passes.
func decrementStock(tx *gorm.DB, rewardID uuid.UUID) (bool, error) {
	res := tx.Model(&model.Reward{}).
		Where("id = ? AND (stock IS NULL OR stock > 0)", rewardID).
		Updates(map[string]interface{}{
			"stock":          gorm.Expr("stock - 1"),
			"total_redeemed": gorm.Expr("total_redeemed + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// restoreStock undoes a decrement when a redemption is rejected or expires.
func restoreStock(tx *gorm.DB, rewardID uuid.UUID) error {
	return tx.Model(&model.Reward{}).
		Where("id = ?", rewardID).
		Updates(map[string]interface{}{
			"stock":          gorm.Expr("stock + 1"),
			"total_redeemed": gorm.Expr("GREATEST(total_redeemed - 1, 0)"),
		}).Error
}
