// Package game holds the room aggregate: the roster, the turn queue and
// everything one session owns for the lifetime of a game.
package game

import (
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
)

// Player is a room member: external identity plus lobby and in-game state.
// Players never exist outside a room's roster.
type Player struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Icon     int    `json:"icon"`

	// IsOwner marks room-creation authority; exactly one member holds it
	IsOwner bool `json:"is_owner"`

	// Ready is the lobby-phase flag
	Ready bool `json:"ready"`

	// CharacterID is nil until the player picks a class
	CharacterID *int                 `json:"character_id,omitempty"`
	Character   *character.Character `json:"character,omitempty"`
}

// Alive reports whether the player has a living character
func (p *Player) Alive() bool {
	return p.Character != nil && p.Character.Alive()
}
