// Package memory is an in-process implementation of store.Store.
// It is used by tests and by deployments running with STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
)

// Store keeps every table in maps guarded by a single RWMutex
type Store struct {
	mu           sync.RWMutex
	participants map[uuid.UUID]models.Participant
	skills       map[uuid.UUID]models.Skill
	offerings    map[uuid.UUID]models.SkillOffering
	exchanges    map[uuid.UUID]*models.Exchange
	messages     map[uuid.UUID]models.Message
	// seq orders messages created within the same clock tick
	seq      int64
	msgOrder map[uuid.UUID]int64
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		participants: make(map[uuid.UUID]models.Participant),
		skills:       make(map[uuid.UUID]models.Skill),
		offerings:    make(map[uuid.UUID]models.SkillOffering),
		exchanges:    make(map[uuid.UUID]*models.Exchange),
		messages:     make(map[uuid.UUID]models.Message),
		msgOrder:     make(map[uuid.UUID]int64),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() {}

// ============================================
// Participants
// ============================================

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range s.participants {
		if strings.EqualFold(existing.Username, p.Username) {
			return store.ErrDuplicate
		}
	}
	s.participants[p.ID] = *p
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// ============================================
// Skills
// ============================================

func (s *Store) CreateSkill(ctx context.Context, sk *models.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skillNameTaken(sk.Name, uuid.Nil) {
		return store.ErrDuplicate
	}
	s.skills[sk.ID] = cloneSkill(*sk)
	return nil
}

func (s *Store) skillNameTaken(name string, except uuid.UUID) bool {
	for id, existing := range s.skills {
		if id != except && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.skills[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sk = cloneSkill(sk)
	return &sk, nil
}

func (s *Store) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sk := range s.skills {
		if strings.EqualFold(sk.Name, name) {
			sk = cloneSkill(sk)
			return &sk, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateSkill(ctx context.Context, sk *models.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[sk.ID]; !ok {
		return store.ErrNotFound
	}
	if s.skillNameTaken(sk.Name, sk.ID) {
		return store.ErrDuplicate
	}
	s.skills[sk.ID] = cloneSkill(*sk)
	return nil
}

func (s *Store) ListActiveSkills(ctx context.Context) ([]models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSkillsMatching(func(models.Skill) bool { return true }), nil
}

func (s *Store) SearchActiveSkills(ctx context.Context, query string) ([]models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSkillsMatching(func(sk models.Skill) bool { return skillMatches(sk, query) }), nil
}

func (s *Store) activeSkillsMatching(keep func(models.Skill) bool) []models.Skill {
	out := make([]models.Skill, 0)
	for _, sk := range s.skills {
		if sk.Active && keep(sk) {
			out = append(out, cloneSkill(sk))
		}
	}
	sortSkills(out)
	return out
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, sk := range s.skills {
		if !sk.Active {
			continue
		}
		if _, ok := seen[sk.Category]; ok {
			continue
		}
		seen[sk.Category] = struct{}{}
		out = append(out, sk.Category)
	}
	sort.Strings(out)
	return out, nil
}

func skillMatches(sk models.Skill, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(sk.Name), q) {
		return true
	}
	return sk.Description != nil && strings.Contains(strings.ToLower(*sk.Description), q)
}

func sortSkills(skills []models.Skill) {
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Category != skills[j].Category {
			return skills[i].Category < skills[j].Category
		}
		return skills[i].Name < skills[j].Name
	})
}

func cloneSkill(sk models.Skill) models.Skill {
	if sk.Description != nil {
		d := *sk.Description
		sk.Description = &d
	}
	return sk
}
