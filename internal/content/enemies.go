package content

import (
	"math/rand"

	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
)

// EnemyTemplate describes a spawnable minion before placement.
type EnemyTemplate struct {
	Name        string
	HP          int
	Damage      int
	AttackRange int
	Reward      int
	Counter     combat.CounterPolicy
	MinLevel    int
}

var enemyTemplates = []EnemyTemplate{
	{Name: "Rat", HP: 4, Damage: 1, AttackRange: 1, Reward: 1, MinLevel: 1},
	{Name: "Skeleton", HP: 6, Damage: 2, AttackRange: 1, Reward: 2, MinLevel: 1},
	{Name: "Goblin", HP: 8, Damage: 2, AttackRange: 1, Reward: 2, MinLevel: 1},
	{Name: "Goblin Archer", HP: 6, Damage: 2, AttackRange: 3, Reward: 3, Counter: combat.CounterNever, MinLevel: 2},
	{Name: "Zombie", HP: 12, Damage: 3, AttackRange: 1, Reward: 3, MinLevel: 2},
	{Name: "Ghost", HP: 8, Damage: 3, AttackRange: 2, Reward: 4, MinLevel: 3},
	{Name: "Orc", HP: 16, Damage: 4, AttackRange: 1, Reward: 5, Counter: combat.CounterAlways, MinLevel: 3},
	{Name: "Dark Mage", HP: 10, Damage: 5, AttackRange: 3, Reward: 6, Counter: combat.CounterNever, MinLevel: 4},
	{Name: "Ogre", HP: 22, Damage: 5, AttackRange: 1, Reward: 7, Counter: combat.CounterAlways, MinLevel: 4},
}

// EnemiesForLevel returns the templates allowed on the given level.
func EnemiesForLevel(lvl int) []EnemyTemplate {
	out := make([]EnemyTemplate, 0, len(enemyTemplates))
	for _, t := range enemyTemplates {
		if t.MinLevel <= lvl {
			out = append(out, t)
		}
	}
	return out
}

// EnemyCountForLevel is how many minions to scatter on a level.
func EnemyCountForLevel(lvl int) int {
	n := 3 + lvl
	if n > 10 {
		n = 10
	}
	return n
}

// SpawnEnemy builds an enemy from a random eligible template, scaled by
// level. HP and reward grow with depth so later floors stay dangerous.
func SpawnEnemy(id int, lvl int, rng *rand.Rand) combat.Enemy {
	pool := EnemiesForLevel(lvl)
	t := pool[rng.Intn(len(pool))]
	scale := lvl - t.MinLevel
	if scale < 0 {
		scale = 0
	}
	return combat.Enemy{
		ID:          id,
		Name:        t.Name,
		HP:          t.HP + 2*scale,
		Damage:      t.Damage + scale/2,
		AttackRange: t.AttackRange,
		Reward:      t.Reward + scale,
		Counter:     t.Counter,
	}
}
