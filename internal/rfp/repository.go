package rfp

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("rfp not found")
	// ErrStorage marks failures of the backing store (connection loss,
	// failed query) as opposed to a missing record or bad input.
	ErrStorage = errors.New("rfp storage unavailable")
)

// Repository persists RFPs. Search expects a needle already normalized with
// NormalizeQuery and returns matches in primary-key order.
type Repository interface {
	List(ctx context.Context) ([]RFP, error)
	Search(ctx context.Context, needle string) ([]RFP, error)
	GetByID(ctx context.Context, id int) (RFP, error)
	Create(ctx context.Context, r RFP) (RFP, error)
	Update(ctx context.Context, id int, r RFP) (RFP, error)
	Delete(ctx context.Context, id int) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests
// and local demos.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []RFP
	nextID  int
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []RFP) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]RFP, 0, len(seed)),
		nextID:  1,
	}

	maxID := 0
	for _, item := range seed {
		r.storage = append(r.storage, item)
		if item.ID > maxID {
			maxID = item.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List(ctx context.Context) ([]RFP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RFP, len(r.storage))
	copy(out, r.storage)
	return out, nil
}

func (r *InMemoryRepository) Search(ctx context.Context, needle string) ([]RFP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Filter(needle, r.storage), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (RFP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.storage {
		if item.ID == id {
			return item, nil
		}
	}
	return RFP{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, item RFP) (RFP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.nextID
	r.nextID++
	r.storage = append(r.storage, item)
	return item, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, item RFP) (RFP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			item.ID = id
			item.CreatedAt = r.storage[i].CreatedAt
			r.storage[i] = item
			return item, nil
		}
	}
	return RFP{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
