package purchase

import (
	"context"
	"sort"
	"sync"
	"time"

	"trustgate/internal/entitlement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemory keeps purchases in process memory. Used in unit tests and local
// development; behavior mirrors the Postgres store including the guarded
// status transition.
type InMemory struct {
	mu        sync.RWMutex
	purchases map[id.PurchaseID]*models.EntitlementPurchase
}

func NewInMemory() *InMemory {
	return &InMemory{purchases: make(map[id.PurchaseID]*models.EntitlementPurchase)}
}

func (s *InMemory) Create(_ context.Context, p *models.EntitlementPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.purchases[p.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.purchases[p.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, purchaseID id.PurchaseID) (*models.EntitlementPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.purchases[purchaseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByPaymentRef(_ context.Context, ref string) (*models.EntitlementPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.purchases {
		if p.PaymentRef == ref && ref != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListActiveByTarget(_ context.Context, target id.TargetID) ([]*models.EntitlementPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EntitlementPurchase
	for _, p := range s.purchases {
		if p.TargetID == target && p.Status == models.StatusActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ListDue(_ context.Context, now time.Time, limit int) ([]*models.EntitlementPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EntitlementPurchase
	for _, p := range s.purchases {
		if p.DueAt(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Transition persists p only if the stored record still has the expected
// prior status, serializing concurrent mutations per record.
func (s *InMemory) Transition(_ context.Context, p *models.EntitlementPurchase, from models.PurchaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.purchases[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != from {
		return sentinel.ErrInvalidState
	}
	cp := *p
	s.purchases[p.ID] = &cp
	return nil
}
