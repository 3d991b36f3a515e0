// Package item defines the purchasable equipment catalog entries.
package item

// StatDeltas is the explicit set of stat modifiers an item can carry.
// Deltas are summed field-by-field over a character's equipment.
type StatDeltas struct {
	Damage        int `json:"damage,omitempty"`
	AttackRange   int `json:"attack_range,omitempty"`
	MaxHP         int `json:"max_hp,omitempty"`
	Armor         int `json:"armor,omitempty"`
	MoveSpeed     int `json:"move_speed,omitempty"`
	LifeAbduction int `json:"life_abduction,omitempty"`
}

// Add returns the field-by-field sum of two delta sets
func (d StatDeltas) Add(other StatDeltas) StatDeltas {
	return StatDeltas{
		Damage:        d.Damage + other.Damage,
		AttackRange:   d.AttackRange + other.AttackRange,
		MaxHP:         d.MaxHP + other.MaxHP,
		Armor:         d.Armor + other.Armor,
		MoveSpeed:     d.MoveSpeed + other.MoveSpeed,
		LifeAbduction: d.LifeAbduction + other.LifeAbduction,
	}
}

// Item is an immutable catalog entry. Characters reference items, they
// never mutate them.
type Item struct {
	Name string `json:"name"`

	// Level is the shop tier the item appears at
	Level int `json:"lvl"`

	Price int `json:"price"`

	// Group is a mutual-exclusion tag: at most one item per group may be
	// equipped at once. Empty means ungrouped.
	Group string `json:"group,omitempty"`

	Deltas StatDeltas `json:"deltas"`
}

// SellPrice is the refund for selling the item back: half the price,
// rounded up.
func (i *Item) SellPrice() int {
	return (i.Price + 1) / 2
}
