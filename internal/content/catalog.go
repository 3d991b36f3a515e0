// Package content holds the read-only game catalogs: character archetypes,
// the item stock, boss flavors and enemy templates. The engine references
// entries by id and never mutates them.
package content

import (
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/item"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

var archetypes = []character.Archetype{
	{
		ID:          0,
		Name:        "Warrior",
		Style:       character.StyleMelee,
		Damage:      5,
		AttackRange: 1,
		MaxHP:       22,
		Armor:       1,
		MoveSpeed:   0,
	},
	{
		ID:            1,
		Name:          "Tank",
		Style:         character.StyleMelee,
		Damage:        3,
		AttackRange:   1,
		MaxHP:         30,
		Armor:         3,
		MoveSpeed:     -1,
		LifeAbduction: 0,
	},
	{
		ID:          2,
		Name:        "Archer",
		Style:       character.StyleRanged,
		Damage:      4,
		AttackRange: 3,
		MaxHP:       16,
		Armor:       0,
		MoveSpeed:   1,
	},
	{
		ID:            3,
		Name:          "Magician",
		Style:         character.StyleRanged,
		Damage:        6,
		AttackRange:   2,
		MaxHP:         14,
		Armor:         0,
		MoveSpeed:     0,
		LifeAbduction: 1,
	},
}

// Archetypes returns every selectable character class
func Archetypes() []character.Archetype {
	out := make([]character.Archetype, len(archetypes))
	copy(out, archetypes)
	return out
}

// ArchetypeByID resolves a character selection. Unknown ids are a player
// input error, not a content error: clients send them.
func ArchetypeByID(id int) (character.Archetype, error) {
	if id < 0 || id >= len(archetypes) {
		return character.Archetype{}, apperrors.Validationf("unknown character id %d", id)
	}
	return archetypes[id], nil
}

var items = []*item.Item{
	// tier 1
	{Name: "Short Sword", Level: 1, Price: 8, Group: "weapon", Deltas: item.StatDeltas{Damage: 2}},
	{Name: "Hunting Bow", Level: 1, Price: 9, Group: "weapon", Deltas: item.StatDeltas{Damage: 1, AttackRange: 1}},
	{Name: "Leather Armor", Level: 1, Price: 7, Group: "armor", Deltas: item.StatDeltas{Armor: 1}},
	{Name: "Traveler Boots", Level: 1, Price: 6, Group: "boots", Deltas: item.StatDeltas{MoveSpeed: 1}},
	{Name: "Vitality Ring", Level: 1, Price: 6, Deltas: item.StatDeltas{MaxHP: 4}},

	// tier 2
	{Name: "Long Sword", Level: 2, Price: 16, Group: "weapon", Deltas: item.StatDeltas{Damage: 4}},
	{Name: "Composite Bow", Level: 2, Price: 17, Group: "weapon", Deltas: item.StatDeltas{Damage: 3, AttackRange: 1}},
	{Name: "Chain Mail", Level: 2, Price: 15, Group: "armor", Deltas: item.StatDeltas{Armor: 2}},
	{Name: "Swift Boots", Level: 2, Price: 13, Group: "boots", Deltas: item.StatDeltas{MoveSpeed: 2}},
	{Name: "Blood Amulet", Level: 2, Price: 14, Deltas: item.StatDeltas{LifeAbduction: 1}},
	{Name: "Heart Pendant", Level: 2, Price: 13, Deltas: item.StatDeltas{MaxHP: 8}},

	// tier 3
	{Name: "Runic Blade", Level: 3, Price: 28, Group: "weapon", Deltas: item.StatDeltas{Damage: 6, LifeAbduction: 1}},
	{Name: "Siege Bow", Level: 3, Price: 30, Group: "weapon", Deltas: item.StatDeltas{Damage: 4, AttackRange: 2}},
	{Name: "Plate Armor", Level: 3, Price: 27, Group: "armor", Deltas: item.StatDeltas{Armor: 3, MoveSpeed: -1, MaxHP: 4}},
	{Name: "Winged Boots", Level: 3, Price: 24, Group: "boots", Deltas: item.StatDeltas{MoveSpeed: 3}},
	{Name: "Dragonheart", Level: 3, Price: 26, Deltas: item.StatDeltas{MaxHP: 12, Armor: 1}},
}

// Items returns the full item catalog
func Items() []*item.Item {
	out := make([]*item.Item, len(items))
	copy(out, items)
	return out
}

// maxItemTier is the highest shop tier in the catalog
const maxItemTier = 3

// ItemsForLevel returns the stock the shop draws from at the given level.
// Levels past the last tier keep selling the top tier.
func ItemsForLevel(lvl int) []*item.Item {
	tier := lvl
	if tier > maxItemTier {
		tier = maxItemTier
	}
	if tier < 1 {
		tier = 1
	}

	var out []*item.Item
	for _, it := range items {
		if it.Level == tier {
			out = append(out, it)
		}
	}
	return out
}
