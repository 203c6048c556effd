package trip

import "context"

// ListOptions contains options for listing saved trips.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing saved trips.
type ListResult struct {
	Items      []*SavedTrip
	NextCursor string
}

// Repository defines the interface for trip persistence.
type Repository interface {
	// GetByUserAndID retrieves a trip by user ID and trip ID.
	// Returns ErrTripNotFound if the trip doesn't exist or doesn't belong to the user.
	GetByUserAndID(ctx context.Context, userID, tripID string) (*SavedTrip, error)

	// List retrieves all trips for a user with pagination.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// Create creates a new saved trip.
	Create(ctx context.Context, t *SavedTrip) error

	// Update updates an existing saved trip.
	Update(ctx context.Context, t *SavedTrip) error

	// Delete deletes a trip by ID.
	Delete(ctx context.Context, id string) error
}
