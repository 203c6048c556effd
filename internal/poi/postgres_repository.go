package poi

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL POI repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a POI by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*POI, error) {
	query := `
		SELECT
			id, name, type, address, rating, ticket_price,
			business_hours, tags, description, created_at, updated_at
		FROM pois
		WHERE id = $1
	`

	var p POI
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Address,
		&p.Rating,
		&p.TicketPrice,
		&p.BusinessHours,
		&p.Tags,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPOINotFound
		}
		return nil, err
	}

	return &p, nil
}

// GetMany retrieves POIs for the given IDs.
func (r *PostgresRepository) GetMany(ctx context.Context, ids []string) ([]*POI, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT
			id, name, type, address, rating, ticket_price,
			business_hours, tags, description, created_at, updated_at
		FROM pois
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID, err := scanPOIs(rows)
	if err != nil {
		return nil, err
	}

	pois := make([]*POI, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			pois = append(pois, p)
		}
	}
	return pois, nil
}

// List retrieves all POIs ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*POI, error) {
	query := `
		SELECT
			id, name, type, address, rating, ticket_price,
			business_hours, tags, description, created_at, updated_at
		FROM pois
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []*POI
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, rows.Err()
}

// Upsert inserts or replaces a POI and its embedding vector.
func (r *PostgresRepository) Upsert(ctx context.Context, p *POI, vector []float64) error {
	query := `
		INSERT INTO pois (
			id, name, type, address, rating, ticket_price,
			business_hours, tags, description, embedding, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			address = EXCLUDED.address,
			rating = EXCLUDED.rating,
			ticket_price = EXCLUDED.ticket_price,
			business_hours = EXCLUDED.business_hours,
			tags = EXCLUDED.tags,
			description = EXCLUDED.description,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Type,
		p.Address,
		p.Rating,
		p.TicketPrice,
		p.BusinessHours,
		p.Tags,
		p.Description,
		vector,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Embeddings retrieves all stored embedding vectors.
func (r *PostgresRepository) Embeddings(ctx context.Context) ([]StoredEmbedding, error) {
	query := `SELECT id, embedding FROM pois WHERE embedding IS NOT NULL`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeddings []StoredEmbedding
	for rows.Next() {
		var e StoredEmbedding
		if err := rows.Scan(&e.POIID, &e.Vector); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, e)
	}
	return embeddings, rows.Err()
}

// Count returns the number of catalog entries.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&count)
	return count, err
}

func scanPOIs(rows pgx.Rows) (map[string]*POI, error) {
	byID := make(map[string]*POI)
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	return byID, rows.Err()
}

func scanPOI(rows pgx.Rows) (*POI, error) {
	var p POI
	err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Address,
		&p.Rating,
		&p.TicketPrice,
		&p.BusinessHours,
		&p.Tags,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
