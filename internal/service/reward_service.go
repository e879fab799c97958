package service

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/pkg/apperror"
	"uniplay.tv/loyalty/pkg/storage"
)

type RewardService interface {
	Create(ctx context.Context, req dto.CreateRewardRequest) (*model.Reward, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateRewardRequest) (*model.Reward, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Get(ctx context.Context, id uuid.UUID) (*dto.RewardResponse, error)
	// Catalog lists rewards with their derived availability. Clients only
	// see active rewards; admins also get deactivated ones.
	Catalog(ctx context.Context, filter dto.RewardCatalogFilter, includeInactive bool) ([]dto.RewardResponse, error)
	UploadImage(ctx context.Context, id uuid.UUID, r io.Reader, fileName string) (string, error)
}

type rewardService struct {
	repo         repository.RewardRepository
	searchSvc    SearchService
	imageStorage storage.ImageStorage
	sanitizer    *bluemonday.Policy
}

func NewRewardService(repo repository.RewardRepository, searchSvc SearchService, imageStorage storage.ImageStorage) RewardService {
	return &rewardService{
		repo:         repo,
		searchSvc:    searchSvc,
		imageStorage: imageStorage,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func (s *rewardService) Create(ctx context.Context, req dto.CreateRewardRequest) (*model.Reward, error) {
	if req.PointsCost <= 0 {
		return nil, apperror.ErrInvalidInput
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	reward := &model.Reward{
		Title:       s.sanitizer.Sanitize(req.Title),
		Description: s.sanitizer.Sanitize(req.Description),
		PointsCost:  req.PointsCost,
		Category:    req.Category,
		Value:       s.sanitizer.Sanitize(req.Value),
		Stock:       req.Stock,
		Active:      active,
		ExpiresAt:   req.ExpiresAt,
		Terms:       s.sanitizeTerms(req.Terms),
	}

	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, err
	}

	s.indexAsync(reward)
	return reward, nil
}

// Update edits catalog fields. Editing points_cost or stock never touches
// existing redemptions: their points_spent stays frozen.
func (s *rewardService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateRewardRequest) (*model.Reward, error) {
	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		reward.Title = s.sanitizer.Sanitize(*req.Title)
	}
	if req.Description != nil {
		reward.Description = s.sanitizer.Sanitize(*req.Description)
	}
	if req.PointsCost != nil {
		if *req.PointsCost <= 0 {
			return nil, apperror.ErrInvalidInput
		}
		reward.PointsCost = *req.PointsCost
	}
	if req.Category != nil {
		reward.Category = *req.Category
	}
	if req.Value != nil {
		reward.Value = s.sanitizer.Sanitize(*req.Value)
	}
	if req.Stock != nil {
		reward.Stock = req.Stock
	}
	if req.ExpiresAt != nil {
		reward.ExpiresAt = req.ExpiresAt
	}
	if req.Terms != nil {
		reward.Terms = s.sanitizeTerms(req.Terms)
	}

	if err := s.repo.Save(ctx, reward); err != nil {
		return nil, err
	}

	s.indexAsync(reward)
	return reward, nil
}

func (s *rewardService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}

	// Deactivated rewards leave the search index entirely.
	if !active {
		s.deleteFromIndexAsync(id)
		return nil
	}

	if reward, err := s.repo.FindByID(ctx, id); err == nil {
		s.indexAsync(reward)
	}
	return nil
}

func (s *rewardService) Get(ctx context.Context, id uuid.UUID) (*dto.RewardResponse, error) {
	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.RewardResponse{
		Reward:       *reward,
		Availability: reward.Availability(time.Now()),
	}, nil
}

func (s *rewardService) Catalog(ctx context.Context, filter dto.RewardCatalogFilter, includeInactive bool) ([]dto.RewardResponse, error) {
	rewards, err := s.repo.FindAll(ctx, filter.Category, !includeInactive)
	if err != nil {
		return nil, err
	}

	if filter.Search != "" {
		rewards = s.filterBySearch(rewards, filter.Search)
	}

	now := time.Now()
	responses := make([]dto.RewardResponse, 0, len(rewards))
	for _, reward := range rewards {
		responses = append(responses, dto.RewardResponse{
			Reward:       reward,
			Availability: reward.Availability(now),
		})
	}

	return responses, nil
}

func (s *rewardService) UploadImage(ctx context.Context, id uuid.UUID, r io.Reader, fileName string) (string, error) {
	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if s.imageStorage == nil {
		return "", apperror.ErrInternal
	}

	url, err := s.imageStorage.UploadImage(ctx, r, "rewards", fileName)
	if err != nil {
		return "", err
	}

	if err := s.repo.SetImageURL(ctx, id, url); err != nil {
		return "", err
	}

	// Best effort: drop the replaced artwork.
	if reward.ImageURL != nil && *reward.ImageURL != "" {
		if err := s.imageStorage.DeleteImage(ctx, *reward.ImageURL); err != nil {
			log.Printf("Failed to delete old reward image %s: %v", *reward.ImageURL, err)
		}
	}

	return url, nil
}

// filterBySearch narrows the catalog by the search term, through Meilisearch
// when available, with a plain substring fallback otherwise.
func (s *rewardService) filterBySearch(rewards []model.Reward, search string) []model.Reward {
	if s.searchSvc != nil {
		ids, err := s.searchSvc.SearchRewardIDs(search)
		if err == nil {
			idSet := make(map[string]bool, len(ids))
			for _, id := range ids {
				idSet[id] = true
			}
			matched := make([]model.Reward, 0, len(rewards))
			for _, reward := range rewards {
				if idSet[reward.ID.String()] {
					matched = append(matched, reward)
				}
			}
			return matched
		}
		log.Printf("Meilisearch reward search failed, falling back to substring match: %v", err)
	}

	term := strings.ToLower(search)
	matched := make([]model.Reward, 0, len(rewards))
	for _, reward := range rewards {
		if strings.Contains(strings.ToLower(reward.Title), term) ||
			strings.Contains(strings.ToLower(reward.Description), term) {
			matched = append(matched, reward)
		}
	}
	return matched
}

func (s *rewardService) sanitizeTerms(terms []string) []string {
	clean := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := strings.TrimSpace(s.sanitizer.Sanitize(term)); t != "" {
			clean = append(clean, t)
		}
	}
	return clean
}

func (s *rewardService) indexAsync(reward *model.Reward) {
	if s.searchSvc == nil {
		return
	}
	go func(r model.Reward) {
		if err := s.searchSvc.IndexReward(&r); err != nil {
			log.Printf("Failed to index reward %s: %v", r.ID, err)
		}
	}(*reward)
}

func (s *rewardService) deleteFromIndexAsync(id uuid.UUID) {
	if s.searchSvc == nil {
		return
	}
	go func() {
		if err := s.searchSvc.DeleteReward(id.String()); err != nil {
			log.Printf("Failed to remove reward %s from index: %v", id, err)
		}
	}()
}
