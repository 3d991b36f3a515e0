package rooms

import (
	"context"

	"github.com/dungeonofmasters/dom-server/internal/domain/game"
)

// Repository defines the interface for room storage
type Repository interface {
	// Create creates a new room
	Create(ctx context.Context, room *game.Room) error

	// Get retrieves a room by ID
	Get(ctx context.Context, id string) (*game.Room, error)

	// Update updates an existing room
	Update(ctx context.Context, room *game.Room) error

	// Delete removes a room
	Delete(ctx context.Context, id string) error

	// List retrieves all stored rooms
	List(ctx context.Context) ([]*game.Room, error)
}
