package poi

import "context"

// StoredEmbedding pairs a POI ID with its embedding vector.
type StoredEmbedding struct {
	POIID  string
	Vector []float64
}

// Repository defines the interface for POI catalog persistence.
type Repository interface {
	// Get retrieves a POI by ID.
	// Returns ErrPOINotFound if no such POI exists.
	Get(ctx context.Context, id string) (*POI, error)

	// GetMany retrieves POIs for the given IDs, skipping IDs that do not
	// exist. Result order is not guaranteed.
	GetMany(ctx context.Context, ids []string) ([]*POI, error)

	// List retrieves all POIs ordered by name.
	List(ctx context.Context) ([]*POI, error)

	// Upsert inserts or replaces a POI and its embedding vector.
	Upsert(ctx context.Context, p *POI, vector []float64) error

	// Embeddings retrieves all stored embedding vectors.
	Embeddings(ctx context.Context) ([]StoredEmbedding, error)

	// Count returns the number of catalog entries.
	Count(ctx context.Context) (int, error)
}
