// Package testutils holds shared test helpers: a skip-if-unavailable live
// Redis client and room fixtures.
package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dungeonofmasters/dom-server/internal/content"
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/game"
)

// NewTestCharacter builds a character of the given archetype id
func NewTestCharacter(t *testing.T, archetypeID int) *character.Character {
	t.Helper()
	arch, err := content.ArchetypeByID(archetypeID)
	require.NoError(t, err)
	return character.New(arch)
}

// NewTestRoom builds a lobby populated with the given players, each with a
// warrior selected and readied up.
func NewTestRoom(t *testing.T, id string, uids ...string) *game.Room {
	t.Helper()
	room := game.NewRoom(id)
	for _, uid := range uids {
		p := &game.Player{UID: uid, Username: uid, Ready: true}
		zero := 0
		p.CharacterID = &zero
		p.Character = NewTestCharacter(t, 0)
		require.NoError(t, room.Join(p))
	}
	return room
}
