package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/pkg/apperror"
)

type LedgerRepository interface {
	Credit(ctx context.Context, userID uuid.UUID, points int, entryType, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error)
	Debit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*model.PointsAccount, error)
	ListEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Credit(ctx context.Context, userID uuid.UUID, points int, entryType, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyCredit(tx, userID, points, entryType, reason, referenceID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ledgerRepository) Debit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyDebit(tx, userID, points, model.EntryTypeSpent, reason, referenceID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ledgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*model.PointsAccount, error) {
	var account model.PointsAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Users without any ledger activity read as a zero balance.
			return &model.PointsAccount{UserID: userID}, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// lockAccount loads the user's points account FOR UPDATE, creating it on
// first use. All balance mutations for a user funnel through this lock, so
// concurrent credits/debits for the same user serialize here.
func lockAccount(tx *gorm.DB, userID uuid.UUID) (*model.PointsAccount, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PointsAccount{UserID: userID}).Error; err != nil {
		return nil, err
	}

	var account model.PointsAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		return nil, err
	}

	return &account, nil
}

// applyCredit appends a positive entry and bumps both running totals. It is
// idempotent per (reason, reference_id): a second credit with the same
// reference fails with ErrDuplicateCredit instead of double-crediting.
// Must run inside a transaction.
func applyCredit(tx *gorm.DB, userID uuid.UUID, points int, entryType, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	account, err := lockAccount(tx, userID)
	if err != nil {
		return nil, err
	}

	if referenceID != nil {
		var count int64
		if err := tx.Model(&model.LedgerEntry{}).
			Where("reason = ? AND reference_id = ? AND points > 0", reason, *referenceID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperror.ErrDuplicateCredit
		}
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		Type:        entryType,
		Points:      points,
		Reason:      reason,
		ReferenceID: referenceID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(account).Updates(map[string]interface{}{
		"current_points":  gorm.Expr("current_points + ?", points),
		"lifetime_earned": gorm.Expr("lifetime_earned + ?", points),
	}).Error; err != nil {
		return nil, err
	}

	return entry, nil
}

// applyDebit appends a negative entry and decrements current_points only;
// spending never touches lifetime_earned. Fails with ErrInsufficientPoints
// when the balance cannot cover the debit. Must run inside a transaction.
func applyDebit(tx *gorm.DB, userID uuid.UUID, points int, entryType, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	account, err := lockAccount(tx, userID)
	if err != nil {
		return nil, err
	}

	if account.CurrentPoints < points {
		return nil, apperror.ErrInsufficientPoints
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		Type:        entryType,
		Points:      -points,
		Reason:      reason,
		ReferenceID: referenceID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(account).
		Update("current_points", gorm.Expr("current_points - ?", points)).Error; err != nil {
		return nil, err
	}

	return entry, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
