// Package character holds the playable character model: a class archetype
// plus an eight-slot equipment array, with derived stats computed from the
// base values and the equipped items' deltas.
package character

import (
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	"github.com/dungeonofmasters/dom-server/internal/domain/item"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

// FightingStyle tags an archetype as melee or ranged. Counter-attack
// policies key off it.
type FightingStyle string

const (
	StyleMelee  FightingStyle = "melee"
	StyleRanged FightingStyle = "ranged"
)

// EquipmentSlots is the fixed size of the equipment array
const EquipmentSlots = 8

// Archetype is a class with fixed base stats
type Archetype struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Style         FightingStyle `json:"style"`
	Damage        int           `json:"damage"`
	AttackRange   int           `json:"attack_range"`
	MaxHP         int           `json:"max_hp"`
	Armor         int           `json:"armor"`
	MoveSpeed     int           `json:"move_speed"`
	LifeAbduction int           `json:"life_abduction"`
}

// Character is one player's in-game avatar. All mutation goes through the
// room engine; the struct itself stays JSON-serializable for snapshots.
type Character struct {
	Archetype Archetype                  `json:"archetype"`
	Items     [EquipmentSlots]*item.Item `json:"items"`
	HP        int                        `json:"hp"`
	Coins     int                        `json:"coins"`
	Pos       grid.Cell                  `json:"pos"`
}

// New creates a character of the given archetype at full health
func New(arch Archetype) *Character {
	return &Character{
		Archetype: arch,
		HP:        arch.MaxHP,
	}
}

// bonuses sums the equipped items' deltas
func (c *Character) bonuses() item.StatDeltas {
	var sum item.StatDeltas
	for _, it := range c.Items {
		if it != nil {
			sum = sum.Add(it.Deltas)
		}
	}
	return sum
}

// Damage returns base damage plus equipment bonuses
func (c *Character) Damage() int {
	return c.Archetype.Damage + c.bonuses().Damage
}

// AttackRange returns base attack range plus equipment bonuses
func (c *Character) AttackRange() int {
	return c.Archetype.AttackRange + c.bonuses().AttackRange
}

// MaxHP returns base max HP plus equipment bonuses
func (c *Character) MaxHP() int {
	return c.Archetype.MaxHP + c.bonuses().MaxHP
}

// Armor returns base armor plus equipment bonuses
func (c *Character) Armor() int {
	return c.Archetype.Armor + c.bonuses().Armor
}

// MoveSpeed returns base move speed plus equipment bonuses. The dice-roll
// move budget is the die face plus this value.
func (c *Character) MoveSpeed() int {
	return c.Archetype.MoveSpeed + c.bonuses().MoveSpeed
}

// LifeAbduction returns base life abduction plus equipment bonuses
func (c *Character) LifeAbduction() int {
	return c.Archetype.LifeAbduction + c.bonuses().LifeAbduction
}

// Alive reports whether the character still has hit points
func (c *Character) Alive() bool {
	return c.HP > 0
}

// BuyItem places the item in the first free slot and charges its price.
// It validates everything before mutating: a failed purchase leaves coins
// and equipment untouched.
func (c *Character) BuyItem(it *item.Item) error {
	slot := -1
	for i, equipped := range c.Items {
		if equipped == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return apperrors.Validation("no space in inventory")
	}

	if it.Group != "" {
		for _, equipped := range c.Items {
			if equipped != nil && equipped.Group == it.Group {
				return apperrors.Validationf("an item of group %q is already equipped", it.Group)
			}
		}
	}

	if c.Coins < it.Price {
		return apperrors.Validation("not enough coins")
	}

	c.Coins -= it.Price
	c.Items[slot] = it
	// a max-HP item raises current HP along with the cap
	c.HP += it.Deltas.MaxHP

	return nil
}

// RemoveItem sells the item in the given slot, refunding half its price and
// freeing the slot. Current HP is clamped to the new maximum.
func (c *Character) RemoveItem(index int) (*item.Item, error) {
	if index < 0 || index >= EquipmentSlots {
		return nil, apperrors.Validationf("item slot %d out of range", index)
	}

	it := c.Items[index]
	if it == nil {
		return nil, apperrors.Validationf("item slot %d is empty", index)
	}

	c.Coins += it.SellPrice()
	c.Items[index] = nil
	if maxHP := c.MaxHP(); c.HP > maxHP {
		c.HP = maxHP
	}

	return it, nil
}

// OnHit applies incoming damage reduced by armor, never below zero, and
// returns the damage actually dealt. HP is floored at zero.
func (c *Character) OnHit(damage int) int {
	applied := damage - c.Armor()
	if applied < 0 {
		applied = 0
	}

	c.HP -= applied
	if c.HP < 0 {
		c.HP = 0
	}

	return applied
}

// Heal restores hit points up to the current maximum. Dead characters stay
// dead.
func (c *Character) Heal(amount int) {
	if !c.Alive() || amount <= 0 {
		return
	}
	c.HP += amount
	if maxHP := c.MaxHP(); c.HP > maxHP {
		c.HP = maxHP
	}
}
