package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// The plan body is stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByUserAndID retrieves a trip by user ID and trip ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, tripID string) (*SavedTrip, error) {
	query := `
		SELECT id, user_id, title, plan, created_at, updated_at
		FROM trips
		WHERE id = $1 AND user_id = $2
	`

	var t SavedTrip
	var planJSON []byte
	err := r.pool.QueryRow(ctx, query, tripID, userID).Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&planJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(planJSON, &t.Plan); err != nil {
		return nil, fmt.Errorf("decoding plan for trip %s: %w", t.ID, err)
	}

	return &t, nil
}

// List retrieves all trips for a user with pagination.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT id, user_id, title, plan, created_at, updated_at
		FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	args := []interface{}{userID, fetchLimit}
	if opts.Cursor != "" {
		query = `
			SELECT id, user_id, title, plan, created_at, updated_at
			FROM trips
			WHERE user_id = $1
			  AND created_at < (SELECT created_at FROM trips WHERE id = $3 AND user_id = $1)
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = append(args, opts.Cursor)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*SavedTrip
	for rows.Next() {
		var t SavedTrip
		var planJSON []byte
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&planJSON,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(planJSON, &t.Plan); err != nil {
			return nil, fmt.Errorf("decoding plan for trip %s: %w", t.ID, err)
		}
		trips = append(trips, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: trips}
	if len(trips) > limit {
		result.Items = trips[:limit]
		result.NextCursor = trips[limit-1].ID
	}

	return result, nil
}

// Create creates a new saved trip.
func (r *PostgresRepository) Create(ctx context.Context, t *SavedTrip) error {
	planJSON, err := json.Marshal(t.Plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	query := `
		INSERT INTO trips (id, user_id, title, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		planJSON,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

// Update updates an existing saved trip.
func (r *PostgresRepository) Update(ctx context.Context, t *SavedTrip) error {
	planJSON, err := json.Marshal(t.Plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	query := `
		UPDATE trips SET
			title = $2,
			plan = $3,
			updated_at = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, t.ID, t.Title, planJSON, t.UpdatedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrTripNotFound
	}

	return nil
}

// Delete deletes a trip by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM trips WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
