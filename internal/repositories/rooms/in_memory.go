package rooms

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
}

// NewInMemoryRepository creates a new in-memory room repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		rooms: make(map[string]*game.Room),
	}
}

// cloneRoom deep-copies a room through its JSON form. Rooms hold nested
// slices and pointers, so a struct copy is not enough to isolate callers.
func cloneRoom(room *game.Room) (*game.Room, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize room")
	}
	var out game.Room
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.Wrap(err, "failed to deserialize room")
	}
	return &out, nil
}

// Create creates a new room
func (r *inMemoryRepository) Create(ctx context.Context, room *game.Room) error {
	if room == nil {
		return apperrors.InvalidArgument("room cannot be nil")
	}
	if room.ID == "" {
		return apperrors.InvalidArgument("room ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return apperrors.AlreadyExistsf("room with ID %s already exists", room.ID)
	}

	roomCopy, err := cloneRoom(room)
	if err != nil {
		return err
	}
	r.rooms[room.ID] = roomCopy

	return nil
}

// Get retrieves a room by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, apperrors.NotFoundf("room not found: %s", id)
	}

	return cloneRoom(room)
}

// Update updates an existing room
func (r *inMemoryRepository) Update(ctx context.Context, room *game.Room) error {
	if room == nil {
		return apperrors.InvalidArgument("room cannot be nil")
	}
	if room.ID == "" {
		return apperrors.InvalidArgument("room ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; !exists {
		return apperrors.NotFoundf("room not found: %s", room.ID)
	}

	roomCopy, err := cloneRoom(room)
	if err != nil {
		return err
	}
	r.rooms[room.ID] = roomCopy

	return nil
}

// Delete removes a room
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; !exists {
		return apperrors.NotFoundf("room not found: %s", id)
	}

	delete(r.rooms, id)
	return nil
}

// List retrieves all stored rooms
func (r *inMemoryRepository) List(ctx context.Context) ([]*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		roomCopy, err := cloneRoom(room)
		if err != nil {
			return nil, err
		}
		out = append(out, roomCopy)
	}

	return out, nil
}
