package plan

import (
	"context"
	"sync"
)

// MemoryRepo keeps plans in memory. Used for local development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	plans map[int64]Plan
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		plans: make(map[int64]Plan),
	}
}

func (r *MemoryRepo) Create(_ context.Context, plan *Plan) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[plan.UserID]; ok {
		return nil, ErrPlanExists
	}
	r.plans[plan.UserID] = clonePlan(*plan)
	return plan, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID int64) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[userID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cloned := clonePlan(p)
	return &cloned, nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[userID]; !ok {
		return ErrPlanNotFound
	}
	delete(r.plans, userID)
	return nil
}

func clonePlan(p Plan) Plan {
	p.Items = append([]Item(nil), p.Items...)
	return p
}
