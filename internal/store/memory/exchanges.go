package memory

import (
	"context"
	"sort"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
)

func (s *Store) CreateExchange(ctx context.Context, e *models.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exchanges[e.ID]; ok {
		return store.ErrDuplicate
	}
	s.exchanges[e.ID] = e.Clone()
	return nil
}

func (s *Store) GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exchanges[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *Store) UpdateExchange(ctx context.Context, e *models.Exchange, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.exchanges[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	s.exchanges[e.ID] = e.Clone()
	return nil
}

func (s *Store) ListExchangesByParticipant(ctx context.Context, participantID uuid.UUID, statuses []models.ExchangeStatus) ([]models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Exchange, 0)
	for _, e := range s.exchanges {
		if e.RequesterID != participantID && e.ProviderID != participantID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, e.Status) {
			continue
		}
		out = append(out, *e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (s *Store) CountCompletedExchanges(ctx context.Context, participantID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.exchanges {
		if e.Status == models.ExchangeStatusCompleted && (e.RequesterID == participantID || e.ProviderID == participantID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CompletedRatingTotals(ctx context.Context, participantID uuid.UUID, role models.Role) (store.RatingTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals store.RatingTotals
	for _, e := range s.exchanges {
		if e.Status != models.ExchangeStatusCompleted {
			continue
		}
		var received *int
		switch role {
		case models.RoleProvider:
			if e.ProviderID == participantID {
				received = e.RequesterRating
			}
		case models.RoleRequester:
			if e.RequesterID == participantID {
				received = e.ProviderRating
			}
		case models.RoleNone:
		}
		if received != nil {
			totals.Sum += int64(*received)
			totals.Count++
		}
	}
	return totals, nil
}

func (s *Store) CountExchangesByStatus(ctx context.Context) (map[models.ExchangeStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.ExchangeStatus]int64, len(models.AllExchangeStatuses))
	for _, e := range s.exchanges {
		counts[e.Status]++
	}
	return counts, nil
}

func containsStatus(statuses []models.ExchangeStatus, status models.ExchangeStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
