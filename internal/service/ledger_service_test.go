package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/pkg/apperror"
)

func TestCreditRejectsNonPositivePoints(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo())

	_, err := svc.Credit(context.Background(), uuid.New(), 0, model.ReasonSubscriptionRenewal, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Credit(context.Background(), uuid.New(), -10, model.ReasonSubscriptionRenewal, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreditIsIdempotentPerReference(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo())
	userID := uuid.New()
	refID := uuid.New()

	_, err := svc.Credit(context.Background(), userID, 500, model.ReasonReferralCompletion, &refID)
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), userID, 500, model.ReasonReferralCompletion, &refID)
	assert.ErrorIs(t, err, apperror.ErrDuplicateCredit)

	balance, err := svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 500, balance.CurrentPoints)
}

func TestDebitInsufficientBalance(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo())
	userID := uuid.New()

	_, err := svc.Debit(context.Background(), userID, 100, model.ReasonRedemption, nil)
	assert.ErrorIs(t, err, apperror.ErrInsufficientPoints)
}

func TestAdjustRoutesBySign(t *testing.T) {
	repo := newFakeLedgerRepo()
	svc := NewLedgerService(repo)
	userID := uuid.New()

	entry, err := svc.Adjust(context.Background(), dto.AdjustPointsRequest{
		UserID: userID, Points: 250, Note: "compensação de suporte",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EntryTypeBonus, entry.Type)
	assert.Equal(t, 250, entry.Points)

	entry, err = svc.Adjust(context.Background(), dto.AdjustPointsRequest{
		UserID: userID, Points: -100, Note: "estorno",
	})
	require.NoError(t, err)
	assert.Equal(t, -100, entry.Points)

	_, err = svc.Adjust(context.Background(), dto.AdjustPointsRequest{
		UserID: userID, Points: 0, Note: "nada",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	balance, err := svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 150, balance.CurrentPoints)
	assert.Equal(t, 250, balance.LifetimeEarned)
}

func TestBalanceForUnknownUserIsZero(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo())

	balance, err := svc.Balance(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, balance.CurrentPoints)
	assert.Zero(t, balance.LifetimeEarned)
}

func TestLevelReflectsLifetimeEarnings(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo())
	userID := uuid.New()

	_, err := svc.Credit(context.Background(), userID, 1000, model.ReasonSubscriptionRenewal, nil)
	require.NoError(t, err)
	_, err = svc.Debit(context.Background(), userID, 800, model.ReasonRedemption, nil)
	require.NoError(t, err)

	level, err := svc.Level(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Prata", level.Name)
	assert.Equal(t, 200, level.CurrentPoints)
	assert.Equal(t, 1000, level.LifetimeEarned)
}

func TestHistoryPagination(t *testing.T) {
	repo := newFakeLedgerRepo()
	svc := NewLedgerService(repo)
	userID := uuid.New()

	for i := 0; i < 25; i++ {
		_, err := svc.Credit(context.Background(), userID, 10, model.ReasonSubscriptionRenewal, nil)
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), userID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history.Data, 10)
	assert.Equal(t, int64(25), history.Meta.TotalItems)
	assert.Equal(t, 3, history.Meta.TotalPages)

	history, err = svc.History(context.Background(), userID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, history.Data, 5)
}
