package memory

import (
	"context"
	"sort"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
)

func (s *Store) CreateOffering(ctx context.Context, o *models.SkillOffering) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.offerings {
		if existing.ParticipantID == o.ParticipantID && existing.SkillID == o.SkillID && existing.Polarity == o.Polarity {
			return store.ErrDuplicate
		}
	}
	s.offerings[o.ID] = cloneOffering(*o)
	return nil
}

func (s *Store) GetOffering(ctx context.Context, id uuid.UUID) (*models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offerings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = cloneOffering(o)
	return &o, nil
}

func (s *Store) FindOffering(ctx context.Context, participantID, skillID uuid.UUID, polarity models.Polarity) (*models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.offerings {
		if o.ParticipantID == participantID && o.SkillID == skillID && o.Polarity == polarity {
			o = cloneOffering(o)
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateOffering(ctx context.Context, o *models.SkillOffering) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offerings[o.ID]; !ok {
		return store.ErrNotFound
	}
	s.offerings[o.ID] = cloneOffering(*o)
	return nil
}

func (s *Store) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offerings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.offerings, id)
	return nil
}

func (s *Store) ListOfferingsByParticipant(ctx context.Context, participantID uuid.UUID, polarity *models.Polarity) ([]models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offeringsMatching(func(o models.SkillOffering) bool {
		return o.ParticipantID == participantID && (polarity == nil || o.Polarity == *polarity)
	}), nil
}

func (s *Store) ListAvailableOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) ([]models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offeringsMatching(func(o models.SkillOffering) bool {
		return o.SkillID == skillID && o.Polarity == polarity && o.Available
	}), nil
}

func (s *Store) ListOfferingsByCategory(ctx context.Context, category string, polarity models.Polarity) ([]models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offeringsMatching(func(o models.SkillOffering) bool {
		sk, ok := s.skills[o.SkillID]
		return ok && sk.Active && o.Polarity == polarity && sk.Category == category
	}), nil
}

func (s *Store) SearchOfferings(ctx context.Context, query string, polarity models.Polarity) ([]models.SkillOffering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offeringsMatching(func(o models.SkillOffering) bool {
		sk, ok := s.skills[o.SkillID]
		return ok && sk.Active && o.Polarity == polarity && skillMatches(sk, query)
	}), nil
}

func (s *Store) CountOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, o := range s.offerings {
		if o.SkillID == skillID && o.Polarity == polarity {
			n++
		}
	}
	return n, nil
}

func (s *Store) TopSkills(ctx context.Context, polarity models.Polarity, limit int) ([]models.SkillPopularity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, o := range s.offerings {
		if o.Polarity == polarity {
			counts[o.SkillID]++
		}
	}

	out := make([]models.SkillPopularity, 0)
	for _, sk := range s.skills {
		if !sk.Active {
			continue
		}
		out = append(out, models.SkillPopularity{Skill: cloneSkill(sk), Providers: counts[sk.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Providers != out[j].Providers {
			return out[i].Providers > out[j].Providers
		}
		return out[i].Skill.Name < out[j].Skill.Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) offeringsMatching(keep func(models.SkillOffering) bool) []models.SkillOffering {
	out := make([]models.SkillOffering, 0)
	for _, o := range s.offerings {
		if keep(o) {
			out = append(out, cloneOffering(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func cloneOffering(o models.SkillOffering) models.SkillOffering {
	if o.Note != nil {
		n := *o.Note
		o.Note = &n
	}
	return o
}
