package rooms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

const (
	// Key patterns
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms"

	// TTL for rooms (1 day; an abandoned lobby should not outlive its players)
	roomTTL = 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client  redis.UniversalClient
	RoomTTL time.Duration
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client  redis.UniversalClient
	roomTTL time.Duration
}

// NewRedisRepository creates a new Redis-backed room repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.RoomTTL
	if ttl == 0 {
		ttl = roomTTL
	}

	return &redisRepository{
		client:  cfg.Client,
		roomTTL: ttl,
	}
}

// Create creates a new room
func (r *redisRepository) Create(ctx context.Context, room *game.Room) error {
	if room == nil {
		return apperrors.InvalidArgument("room cannot be nil")
	}
	if room.ID == "" {
		return apperrors.InvalidArgument("room ID cannot be empty")
	}

	data, err := json.Marshal(room)
	if err != nil {
		return apperrors.Wrap(err, "failed to serialize room")
	}

	roomKey := roomKeyPrefix + room.ID

	// SetNX so concurrent creates with the same ID cannot clobber each other
	created, err := r.client.SetNX(ctx, roomKey, data, r.roomTTL).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to create room")
	}
	if !created {
		return apperrors.AlreadyExistsf("room with ID %s already exists", room.ID)
	}

	if err := r.client.SAdd(ctx, roomIndexKey, room.ID).Err(); err != nil {
		return apperrors.Wrap(err, "failed to index room")
	}

	return nil
}

// Get retrieves a room by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*game.Room, error) {
	roomKey := roomKeyPrefix + id

	data, err := r.client.Get(ctx, roomKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFoundf("room not found: %s", id)
		}
		return nil, apperrors.Wrap(err, "failed to get room")
	}

	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, apperrors.Wrap(err, "failed to deserialize room")
	}

	// Refresh TTL
	r.client.Expire(ctx, roomKey, r.roomTTL)

	return &room, nil
}

// Update updates an existing room
func (r *redisRepository) Update(ctx context.Context, room *game.Room) error {
	if room == nil {
		return apperrors.InvalidArgument("room cannot be nil")
	}
	if room.ID == "" {
		return apperrors.InvalidArgument("room ID cannot be empty")
	}

	data, err := json.Marshal(room)
	if err != nil {
		return apperrors.Wrap(err, "failed to serialize room")
	}

	roomKey := roomKeyPrefix + room.ID

	// SET XX only overwrites a live key, so a deleted room stays deleted
	set, err := r.client.SetXX(ctx, roomKey, data, r.roomTTL).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to update room")
	}
	if !set {
		return apperrors.NotFoundf("room not found: %s", room.ID)
	}

	return nil
}

// Delete removes a room
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	roomKey := roomKeyPrefix + id

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, roomKey)
	pipe.SRem(ctx, roomIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to delete room")
	}

	if delCmd.Val() == 0 {
		return apperrors.NotFoundf("room not found: %s", id)
	}

	return nil
}

// List retrieves all stored rooms
func (r *redisRepository) List(ctx context.Context) ([]*game.Room, error) {
	ids, err := r.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rooms")
	}
	if len(ids) == 0 {
		return []*game.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rooms")
	}

	out := make([]*game.Room, 0, len(ids))
	for i, val := range values {
		if val == nil {
			// Expired room still in the index, drop it lazily
			r.client.SRem(ctx, roomIndexKey, ids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			continue
		}

		var room game.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			continue
		}

		out = append(out, &room)
	}

	return out, nil
}
