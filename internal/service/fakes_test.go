package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/pkg/apperror"
)

// In-memory fakes of the repository interfaces. They reproduce the invariant
// checks the real repositories enforce in SQL (terminal states, duplicate
// credits, insufficient balance, stock bounds) so the services can be
// exercised without a database.

type fakeLedgerRepo struct {
	accounts map[uuid.UUID]*model.PointsAccount
	entries  []model.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{accounts: make(map[uuid.UUID]*model.PointsAccount)}
}

func (f *fakeLedgerRepo) account(userID uuid.UUID) *model.PointsAccount {
	if acc, ok := f.accounts[userID]; ok {
		return acc
	}
	acc := &model.PointsAccount{UserID: userID}
	f.accounts[userID] = acc
	return acc
}

func (f *fakeLedgerRepo) Credit(ctx context.Context, userID uuid.UUID, points int, entryType, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	if referenceID != nil {
		for _, e := range f.entries {
			if e.Reason == reason && e.ReferenceID != nil && *e.ReferenceID == *referenceID && e.Points > 0 {
				return nil, apperror.ErrDuplicateCredit
			}
		}
	}

	entry := model.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        entryType,
		Points:      points,
		Reason:      reason,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}
	f.entries = append(f.entries, entry)

	acc := f.account(userID)
	acc.CurrentPoints += points
	acc.LifetimeEarned += points
	return &entry, nil
}

func (f *fakeLedgerRepo) Debit(ctx context.Context, userID uuid.UUID, points int, reason string, referenceID *uuid.UUID) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	acc := f.account(userID)
	if acc.CurrentPoints < points {
		return nil, apperror.ErrInsufficientPoints
	}

	entry := model.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        model.EntryTypeSpent,
		Points:      -points,
		Reason:      reason,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}
	f.entries = append(f.entries, entry)
	acc.CurrentPoints -= points
	return &entry, nil
}

func (f *fakeLedgerRepo) GetAccount(ctx context.Context, userID uuid.UUID) (*model.PointsAccount, error) {
	acc := f.account(userID)
	copied := *acc
	return &copied, nil
}

func (f *fakeLedgerRepo) ListEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}

	total := int64(len(entries))
	start := (page - 1) * limit
	if start > len(entries) {
		start = len(entries)
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], total, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.ErrNotFound
	}
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

type fakeSearchService struct {
	indexed chan string
	deleted chan string
}

func newFakeSearchService() *fakeSearchService {
	return &fakeSearchService{
		indexed: make(chan string, 8),
		deleted: make(chan string, 8),
	}
}

func (f *fakeSearchService) IndexReward(reward *model.Reward) error {
	f.indexed <- reward.ID.String()
	return nil
}

func (f *fakeSearchService) DeleteReward(id string) error {
	f.deleted <- id
	return nil
}

func (f *fakeSearchService) SearchRewardIDs(query string) ([]string, error) {
	return nil, nil
}

type fakeReferralRepo struct {
	referrals map[uuid.UUID]*model.Referral
	ledger    *fakeLedgerRepo
	top       []repository.TopReferrer
}

func newFakeReferralRepo(ledger *fakeLedgerRepo) *fakeReferralRepo {
	return &fakeReferralRepo{
		referrals: make(map[uuid.UUID]*model.Referral),
		ledger:    ledger,
	}
}

func (f *fakeReferralRepo) Create(ctx context.Context, referral *model.Referral) error {
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	stored := *referral
	f.referrals[referral.ID] = &stored
	return nil
}

func (f *fakeReferralRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	if r, ok := f.referrals[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeReferralRepo) FindPendingByReferredUser(ctx context.Context, userID uuid.UUID) (*model.Referral, error) {
	for _, r := range f.referrals {
		if r.ReferredUserID != nil && *r.ReferredUserID == userID && r.Status == model.ReferralStatusPending {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeReferralRepo) AttachRegistration(ctx context.Context, id, referredUserID uuid.UUID) (*model.Referral, error) {
	r, ok := f.referrals[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.ReferralStatusPending {
		return nil, apperror.ErrInvalidTransition
	}
	r.ReferredUserID = &referredUserID
	copied := *r
	return &copied, nil
}

func (f *fakeReferralRepo) Complete(ctx context.Context, id uuid.UUID, subscriptionPlan *string) (*model.Referral, error) {
	r, ok := f.referrals[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.ReferralStatusPending {
		return nil, apperror.ErrInvalidTransition
	}

	refID := r.ID
	if _, err := f.ledger.Credit(ctx, r.ReferrerUserID, r.RewardPoints,
		model.EntryTypeEarned, model.ReasonReferralCompletion, &refID); err != nil {
		return nil, err
	}

	now := time.Now()
	r.Status = model.ReferralStatusCompleted
	r.CompletedAt = &now
	r.RewardGiven = true
	r.SubscriptionPlan = subscriptionPlan
	copied := *r
	return &copied, nil
}

func (f *fakeReferralRepo) Cancel(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	r, ok := f.referrals[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.ReferralStatusPending {
		return nil, apperror.ErrInvalidTransition
	}
	r.Status = model.ReferralStatusCancelled
	copied := *r
	return &copied, nil
}

func (f *fakeReferralRepo) List(ctx context.Context, q repository.ReferralQuery) ([]model.Referral, int64, error) {
	var out []model.Referral
	for _, r := range f.referrals {
		if q.ReferrerUserID != nil && r.ReferrerUserID != *q.ReferrerUserID {
			continue
		}
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReferralRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	byStatus := make(map[string]int64)
	for _, r := range f.referrals {
		byStatus[r.Status]++
	}
	var counts []repository.StatusCount
	for status, total := range byStatus {
		counts = append(counts, repository.StatusCount{Status: status, Total: total})
	}
	return counts, nil
}

func (f *fakeReferralRepo) TopReferrers(ctx context.Context, limit int) ([]repository.TopReferrer, error) {
	return f.top, nil
}

type fakeRewardRepo struct {
	rewards map[uuid.UUID]*model.Reward
}

func newFakeRewardRepo(rewards ...*model.Reward) *fakeRewardRepo {
	f := &fakeRewardRepo{rewards: make(map[uuid.UUID]*model.Reward)}
	for _, r := range rewards {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		f.rewards[r.ID] = r
	}
	return f
}

func (f *fakeRewardRepo) Create(ctx context.Context, reward *model.Reward) error {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	f.rewards[reward.ID] = reward
	return nil
}

func (f *fakeRewardRepo) Save(ctx context.Context, reward *model.Reward) error {
	f.rewards[reward.ID] = reward
	return nil
}

func (f *fakeRewardRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	if r, ok := f.rewards[id]; ok {
		return r, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeRewardRepo) FindAll(ctx context.Context, category string, onlyActive bool) ([]model.Reward, error) {
	var out []model.Reward
	for _, r := range f.rewards {
		if category != "" && r.Category != category {
			continue
		}
		if onlyActive && !r.Active {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRewardRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r, ok := f.rewards[id]
	if !ok {
		return apperror.ErrNotFound
	}
	r.Active = active
	return nil
}

func (f *fakeRewardRepo) SetImageURL(ctx context.Context, id uuid.UUID, url string) error {
	r, ok := f.rewards[id]
	if !ok {
		return apperror.ErrNotFound
	}
	r.ImageURL = &url
	return nil
}

type fakeRedemptionRepo struct {
	redemptions map[uuid.UUID]*model.Redemption
	rewards     *fakeRewardRepo
	ledger      *fakeLedgerRepo
}

func newFakeRedemptionRepo(rewards *fakeRewardRepo, ledger *fakeLedgerRepo) *fakeRedemptionRepo {
	return &fakeRedemptionRepo{
		redemptions: make(map[uuid.UUID]*model.Redemption),
		rewards:     rewards,
		ledger:      ledger,
	}
}

func (f *fakeRedemptionRepo) Redeem(ctx context.Context, redemption *model.Redemption) error {
	reward, ok := f.rewards.rewards[redemption.RewardID]
	if !ok {
		return apperror.ErrNotFound
	}

	if !reward.Live(time.Now()) {
		return apperror.ErrRewardUnavailable
	}

	if reward.Stock != nil {
		if *reward.Stock <= 0 {
			return apperror.ErrOutOfStock
		}
		*reward.Stock--
	}
	reward.TotalRedeemed++

	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	redemption.PointsSpent = reward.PointsCost

	redemptionID := redemption.ID
	if _, err := f.ledger.Debit(ctx, redemption.UserID, reward.PointsCost,
		model.ReasonRedemption, &redemptionID); err != nil {
		return err
	}

	stored := *redemption
	f.redemptions[redemption.ID] = &stored
	return nil
}

func (f *fakeRedemptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	if r, ok := f.redemptions[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeRedemptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	var out []model.Redemption
	for _, r := range f.redemptions {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRedemptionRepo) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Redemption, int64, error) {
	var out []model.Redemption
	for _, r := range f.redemptions {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRedemptionRepo) Approve(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	r, ok := f.redemptions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.RedemptionStatusPending {
		return nil, apperror.ErrInvalidTransition
	}
	r.Status = model.RedemptionStatusApproved
	copied := *r
	return &copied, nil
}

func (f *fakeRedemptionRepo) MarkUsed(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	r, ok := f.redemptions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.RedemptionStatusApproved {
		return nil, apperror.ErrInvalidTransition
	}
	now := time.Now()
	r.Status = model.RedemptionStatusUsed
	r.UsedAt = &now
	copied := *r
	return &copied, nil
}

func (f *fakeRedemptionRepo) Reverse(ctx context.Context, id uuid.UUID, toStatus string) (*model.Redemption, error) {
	r, ok := f.redemptions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if r.Status != model.RedemptionStatusPending && r.Status != model.RedemptionStatusApproved {
		return nil, apperror.ErrInvalidTransition
	}

	redemptionID := r.ID
	if _, err := f.ledger.Credit(ctx, r.UserID, r.PointsSpent,
		model.EntryTypeAdjustment, model.ReasonRedemptionReversal, &redemptionID); err != nil {
		return nil, err
	}

	if reward, ok := f.rewards.rewards[r.RewardID]; ok {
		if reward.Stock != nil {
			*reward.Stock++
		}
		if reward.TotalRedeemed > 0 {
			reward.TotalRedeemed--
		}
	}

	r.Status = toStatus
	copied := *r
	return &copied, nil
}

func (f *fakeRedemptionRepo) ListOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, r := range f.redemptions {
		if r.Status != model.RedemptionStatusPending && r.Status != model.RedemptionStatusApproved {
			continue
		}
		if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
