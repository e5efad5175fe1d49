package flags

import (
	"context"
	"sync"
	"time"

	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemory keeps the promotion read model in process memory.
type InMemory struct {
	mu         sync.RWMutex
	promotions map[id.TargetID]*models.Promotion
}

func NewInMemory() *InMemory {
	return &InMemory{promotions: make(map[id.TargetID]*models.Promotion)}
}

func (s *InMemory) Get(_ context.Context, target id.TargetID) (*models.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promotions[target]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) PutCapabilities(_ context.Context, target id.TargetID, states map[id.Tier]models.CapabilityState, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promotions[target]
	if !ok {
		p = &models.Promotion{TargetID: target, CreatedAt: now}
		s.promotions[target] = p
	}
	for tier, state := range states {
		p.SetState(tier, state)
	}
	p.UpdatedAt = now
	return nil
}

func (s *InMemory) SetEnhancements(_ context.Context, target id.TargetID, aiEnhanced, specSheet bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promotions[target]
	if !ok {
		p = &models.Promotion{TargetID: target, CreatedAt: now}
		s.promotions[target] = p
	}
	p.AIEnhanced = aiEnhanced
	p.SpecSheet = specSheet
	p.UpdatedAt = now
	return nil
}
