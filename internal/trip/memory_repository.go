package trip

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*SavedTrip
}

// NewInMemoryRepository creates a new in-memory trip repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*SavedTrip),
	}
}

// GetByUserAndID retrieves a trip by user ID and trip ID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, tripID string) (*SavedTrip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[tripID]
	if !ok || t.UserID != userID {
		return nil, ErrTripNotFound
	}

	// Return a copy
	cpy := *t
	return &cpy, nil
}

// List retrieves all trips for a user with pagination.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trips []*SavedTrip
	for _, t := range r.trips {
		if t.UserID == userID {
			cpy := *t
			trips = append(trips, &cpy)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].CreatedAt.After(trips[j].CreatedAt) })

	if opts.Cursor != "" {
		for i, t := range trips {
			if t.ID == opts.Cursor {
				trips = trips[i+1:]
				break
			}
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: trips}
	if len(trips) > limit {
		result.Items = trips[:limit]
		result.NextCursor = trips[limit-1].ID
	}

	return result, nil
}

// Create creates a new saved trip.
func (r *InMemoryRepository) Create(_ context.Context, t *SavedTrip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// Update updates an existing saved trip.
func (r *InMemoryRepository) Update(_ context.Context, t *SavedTrip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trips[t.ID]; !ok {
		return ErrTripNotFound
	}

	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// Delete deletes a trip by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
