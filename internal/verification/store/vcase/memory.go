package vcase

import (
	"context"
	"sort"
	"sync"

	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemory keeps verification cases in process memory, mirroring the Postgres
// store's optimistic version guard.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.VerificationCase
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.VerificationCase)}
}

func (s *InMemory) Create(_ context.Context, c *models.VerificationCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.cases[c.ID] = copyCase(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.VerificationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCase(c), nil
}

// FindOpenByActor returns the most recent non-terminal case for the actor in
// one role. Each actor type carries its own case, so the same actor can hold a
// buyer case and a seller case side by side. Rejected cases count as open:
// resubmission reuses them.
func (s *InMemory) FindOpenByActor(_ context.Context, actor id.ActorID, actorType id.ActorType) (*models.VerificationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.latest(actor, func(c *models.VerificationCase) bool {
		return c.ActorType == actorType && !c.Status.Terminal()
	})
	if c == nil {
		return nil, sentinel.ErrNotFound
	}
	return copyCase(c), nil
}

// FindActiveByPaymentRef returns the active case funded by a subscription.
func (s *InMemory) FindActiveByPaymentRef(_ context.Context, paymentRef string) (*models.VerificationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.Status == models.StatusActive && c.PaymentRef == paymentRef {
			return copyCase(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListByStatus returns cases in a status, oldest first. Feeds the admin queue.
func (s *InMemory) ListByStatus(_ context.Context, status models.CaseStatus, limit int) ([]*models.VerificationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerificationCase
	for _, c := range s.cases {
		if c.Status == status {
			out = append(out, copyCase(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update persists c guarded on the stored version. The version bumps on
// success so a stale snapshot held elsewhere can no longer win.
func (s *InMemory) Update(_ context.Context, c *models.VerificationCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != c.Version {
		return sentinel.ErrConflict
	}
	c.Version++
	s.cases[c.ID] = copyCase(c)
	return nil
}

func (s *InMemory) latest(actor id.ActorID, match func(*models.VerificationCase) bool) *models.VerificationCase {
	var found *models.VerificationCase
	for _, c := range s.cases {
		if c.ActorID != actor || !match(c) {
			continue
		}
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			found = c
		}
	}
	return found
}

func copyCase(c *models.VerificationCase) *models.VerificationCase {
	cp := *c
	cp.Documents = append([]models.Document(nil), c.Documents...)
	cp.History = append([]models.StatusChange(nil), c.History...)
	if c.AIReview != nil {
		r := *c.AIReview
		cp.AIReview = &r
	}
	if c.AdminReview != nil {
		r := *c.AdminReview
		cp.AdminReview = &r
	}
	return &cp
}
