// Package combat holds the hostile entities of a level — enemies and the
// boss — plus the data-driven skill-pattern interpreter boss attacks are
// built from.
package combat

import (
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// CounterPolicy decides whether a defender strikes back after surviving a
// hit in the fight sub-phase. Content-defined per enemy template and boss
// flavor.
type CounterPolicy string

const (
	// CounterMelee counters only attackers that fight in melee. The zero
	// value resolves to this, it is the default rule.
	CounterMelee CounterPolicy = "melee"

	// CounterAlways counters every attacker
	CounterAlways CounterPolicy = "always"

	// CounterNever never counters
	CounterNever CounterPolicy = "never"
)

// Allows reports whether a surviving defender with this policy counters an
// attacker of the given fighting style.
func (p CounterPolicy) Allows(style character.FightingStyle) bool {
	switch p {
	case CounterAlways:
		return true
	case CounterNever:
		return false
	default:
		return style == character.StyleMelee
	}
}

// Enemy is an ephemeral per-level entity; it is removed from the room when
// its HP reaches zero.
type Enemy struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	HP          int           `json:"hp"`
	Damage      int           `json:"damage"`
	AttackRange int           `json:"attack_range"`
	Reward      int           `json:"reward"`
	Counter     CounterPolicy `json:"counter,omitempty"`
	Pos         grid.Cell     `json:"pos"`
}

// OnHit applies damage; enemies have no armor
func (e *Enemy) OnHit(damage int) {
	e.HP -= damage
	if e.HP < 0 {
		e.HP = 0
	}
}

// Alive reports whether the enemy is still standing
func (e *Enemy) Alive() bool {
	return e.HP > 0
}
