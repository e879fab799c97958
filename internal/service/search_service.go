package service

import (
	"encoding/json"
	"log"

	"github.com/meilisearch/meilisearch-go"
	"uniplay.tv/loyalty/internal/model"
)

// SearchService mirrors the reward catalog into Meilisearch so admins can
// search it by title and description. Indexing is best-effort: a failed
// index never fails the write that triggered it.
type SearchService interface {
	IndexReward(reward *model.Reward) error
	DeleteReward(id string) error
	SearchRewardIDs(query string) ([]string, error)
}

type searchService struct {
	client meilisearch.ServiceManager
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{client: client}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	filterableAttrs := []string{"category", "active"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index("rewards").UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Printf("Failed to update rewards filterable attributes: %v", err)
	}

	sortableAttrs := []string{"points_cost", "created_at"}
	_, err = s.client.Index("rewards").UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Printf("Failed to update rewards sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliRewardDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Value       string `json:"value"`
	PointsCost  int    `json:"points_cost"`
	Active      bool   `json:"active"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *searchService) IndexReward(reward *model.Reward) error {
	doc := meiliRewardDoc{
		ID:          reward.ID.String(),
		Title:       reward.Title,
		Description: reward.Description,
		Category:    reward.Category,
		Value:       reward.Value,
		PointsCost:  reward.PointsCost,
		Active:      reward.Active,
		CreatedAt:   reward.CreatedAt.Unix(),
	}

	task, err := s.client.Index("rewards").AddDocuments([]meiliRewardDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed reward %s, task id: %d", reward.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteReward(id string) error {
	_, err := s.client.Index("rewards").DeleteDocument(id)
	return err
}

func (s *searchService) SearchRewardIDs(query string) ([]string, error) {
	res, err := s.client.Index("rewards").Search(query, &meilisearch.SearchRequest{
		Limit: 50,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc meiliRewardDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		ids = append(ids, doc.ID)
	}

	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
