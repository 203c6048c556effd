package poi

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	pois    map[string]*POI
	vectors map[string][]float64
}

// NewInMemoryRepository creates a new in-memory POI repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		pois:    make(map[string]*POI),
		vectors: make(map[string][]float64),
	}
}

// Get retrieves a POI by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*POI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pois[id]
	if !ok {
		return nil, ErrPOINotFound
	}

	// Return a copy
	cpy := *p
	return &cpy, nil
}

// GetMany retrieves POIs for the given IDs.
func (r *InMemoryRepository) GetMany(_ context.Context, ids []string) ([]*POI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pois := make([]*POI, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.pois[id]; ok {
			cpy := *p
			pois = append(pois, &cpy)
		}
	}
	return pois, nil
}

// List retrieves all POIs ordered by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*POI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pois := make([]*POI, 0, len(r.pois))
	for _, p := range r.pois {
		cpy := *p
		pois = append(pois, &cpy)
	}
	sort.Slice(pois, func(i, j int) bool { return pois[i].Name < pois[j].Name })
	return pois, nil
}

// Upsert inserts or replaces a POI and its embedding vector.
func (r *InMemoryRepository) Upsert(_ context.Context, p *POI, vector []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *p
	r.pois[p.ID] = &cpy
	if vector != nil {
		r.vectors[p.ID] = append([]float64(nil), vector...)
	}
	return nil
}

// Embeddings retrieves all stored embedding vectors.
func (r *InMemoryRepository) Embeddings(_ context.Context) ([]StoredEmbedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	embeddings := make([]StoredEmbedding, 0, len(r.vectors))
	for id, vec := range r.vectors {
		embeddings = append(embeddings, StoredEmbedding{
			POIID:  id,
			Vector: append([]float64(nil), vec...),
		})
	}
	sort.Slice(embeddings, func(i, j int) bool { return embeddings[i].POIID < embeddings[j].POIID })
	return embeddings, nil
}

// Count returns the number of catalog entries.
func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pois), nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
