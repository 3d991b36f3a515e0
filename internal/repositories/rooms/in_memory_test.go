package rooms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	room := game.NewRoom("room-1")
	require.NoError(t, room.Join(&game.Player{UID: "u1", Username: "alice"}))

	require.NoError(t, repo.Create(ctx, room))

	got, err := repo.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.ID)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "alice", got.Players[0].Username)

	// stored copy is isolated from later mutation of the input
	room.Players[0].Username = "mallory"
	got, err = repo.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Players[0].Username)
}

func TestInMemoryCreateDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	room := game.NewRoom("room-1")
	require.NoError(t, repo.Create(ctx, room))

	err := repo.Create(ctx, room)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAlreadyExists, apperrors.GetCode(err))
}

func TestInMemoryGetMissing(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInMemoryUpdate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	room := game.NewRoom("room-1")
	require.NoError(t, repo.Create(ctx, room))

	room.Level = 3
	require.NoError(t, repo.Update(ctx, room))

	got, err := repo.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level)

	missing := game.NewRoom("room-2")
	err = repo.Update(ctx, missing)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	room := game.NewRoom("room-1")
	require.NoError(t, repo.Create(ctx, room))
	require.NoError(t, repo.Delete(ctx, "room-1"))

	_, err := repo.Get(ctx, "room-1")
	assert.True(t, apperrors.IsNotFound(err))

	err = repo.Delete(ctx, "room-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInMemoryList(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, game.NewRoom("a")))
	require.NoError(t, repo.Create(ctx, game.NewRoom("b")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
