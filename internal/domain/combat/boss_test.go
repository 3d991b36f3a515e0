package combat_test

import (
	"math/rand"
	"testing"

	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rayFlavor() combat.Flavor {
	return combat.Flavor{
		Name:   "Bow Master",
		BaseHP: 40,
		Damage: 3,
		Skills: [4]combat.Skill{
			{Name: "piercing shot", Steps: []combat.SkillStep{
				{Select: combat.TargetSelector{Kind: combat.SelectRayToward, Length: 4}, Damage: 4},
			}},
			{Name: "arrow rain", Steps: []combat.SkillStep{
				{Select: combat.TargetSelector{Kind: combat.SelectRaysAround}, Damage: 5},
			}},
			{Name: "stomp", Steps: []combat.SkillStep{
				{Select: combat.TargetSelector{Kind: combat.SelectRect, Radius: 1}, Damage: 2},
			}},
			{Name: "snipe", Steps: []combat.SkillStep{
				{Select: combat.TargetSelector{Kind: combat.SelectFarthest}, Damage: 6},
			}},
		},
	}
}

func TestBossSkillHitsPlayerOnRay(t *testing.T) {
	boss := combat.NewBoss(rayFlavor())
	boss.Pos = grid.Cell{Row: 4, Col: 4}

	onRay := charAt(grid.Cell{Row: 4, Col: 6}, 1)
	offRay := charAt(grid.Cell{Row: 0, Col: 0}, 0)
	// onRay is nearer, so the ray aims right at it
	chars := []*character.Character{onRay, offRay}

	report := boss.ExecuteSkill(0, size, chars, rand.New(rand.NewSource(1)))

	require.Len(t, report.Hits, 1)
	assert.Equal(t, 0, report.Hits[0].TargetIndex)
	assert.Equal(t, 3, report.Hits[0].Damage, "4 raw minus 1 armor")
	assert.Equal(t, 17, onRay.HP)
	assert.Equal(t, 20, offRay.HP)
}

func TestBossSkillIgnoresDeadWhenAnchoring(t *testing.T) {
	boss := combat.NewBoss(rayFlavor())
	boss.Pos = grid.Cell{Row: 4, Col: 4}

	dead := charAt(grid.Cell{Row: 4, Col: 5}, 0)
	dead.OnHit(1000)
	alive := charAt(grid.Cell{Row: 4, Col: 0}, 0)
	chars := []*character.Character{dead, alive}

	report := boss.ExecuteSkill(0, size, chars, rand.New(rand.NewSource(1)))

	// the ray anchors on the living player to the left
	require.Len(t, report.Hits, 1)
	assert.Equal(t, 1, report.Hits[0].TargetIndex)
}

func TestBossOnHitAndHeal(t *testing.T) {
	boss := combat.NewBoss(rayFlavor())
	require.Equal(t, 40, boss.HP)

	boss.OnHit(15)
	assert.Equal(t, 25, boss.HP)

	boss.Heal(100)
	assert.Equal(t, 40, boss.HP, "heal caps at the flavor base HP")

	boss.OnHit(1000)
	assert.Equal(t, 0, boss.HP)
	assert.False(t, boss.Alive())

	boss.Heal(10)
	assert.Equal(t, 0, boss.HP, "a dead boss does not heal back")
}

func TestCounterPolicy(t *testing.T) {
	assert.True(t, combat.CounterMelee.Allows(character.StyleMelee))
	assert.False(t, combat.CounterMelee.Allows(character.StyleRanged))
	assert.True(t, combat.CounterPolicy("").Allows(character.StyleMelee), "zero value behaves as melee-only")
	assert.True(t, combat.CounterAlways.Allows(character.StyleRanged))
	assert.False(t, combat.CounterNever.Allows(character.StyleMelee))
}

func TestRandomSkillPolicyStaysInRange(t *testing.T) {
	policy := combat.NewRandomSkillPolicy(rand.New(rand.NewSource(3)))
	boss := combat.NewBoss(rayFlavor())

	for i := 0; i < 100; i++ {
		idx := policy.Next(boss)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
	}
}

func TestEnemyOnHit(t *testing.T) {
	e := &combat.Enemy{ID: 1, Name: "Skeleton", HP: 6, Damage: 2, Reward: 5}

	e.OnHit(4)
	assert.Equal(t, 2, e.HP)
	assert.True(t, e.Alive())

	e.OnHit(10)
	assert.Equal(t, 0, e.HP)
	assert.False(t, e.Alive())
}
