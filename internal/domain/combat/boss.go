package combat

import (
	"math/rand"

	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// Flavor is the data description of one boss variant: its name, base HP,
// counter rule and the four skills. All variants run through the same
// interpreter.
type Flavor struct {
	Name    string        `json:"name"`
	BaseHP  int           `json:"base_hp"`
	Damage  int           `json:"damage"`
	Counter CounterPolicy `json:"counter,omitempty"`
	Skills  [4]Skill      `json:"skills"`
}

// Boss is the one boss of the current level. Its identity persists across
// heal ticks until it is killed or the level ends.
type Boss struct {
	Flavor Flavor    `json:"flavor"`
	HP     int       `json:"hp"`
	Pos    grid.Cell `json:"pos"`
}

// NewBoss spawns a boss of the given flavor at full health
func NewBoss(flavor Flavor) *Boss {
	return &Boss{
		Flavor: flavor,
		HP:     flavor.BaseHP,
	}
}

// Alive reports whether the boss still has hit points
func (b *Boss) Alive() bool {
	return b.HP > 0
}

// OnHit applies damage; bosses have no armor
func (b *Boss) OnHit(damage int) {
	b.HP -= damage
	if b.HP < 0 {
		b.HP = 0
	}
}

// Heal restores hit points up to the flavor's base value
func (b *Boss) Heal(amount int) {
	if !b.Alive() || amount <= 0 {
		return
	}
	b.HP += amount
	if b.HP > b.Flavor.BaseHP {
		b.HP = b.Flavor.BaseHP
	}
}

// SkillReport describes one executed skill for broadcasting: the cells it
// covered and the characters it hit.
type SkillReport struct {
	Skill string      `json:"skill"`
	Cells []grid.Cell `json:"cells"`
	Hits  []HitResult `json:"hits"`
}

// ExecuteSkill runs the skill with the given index against the players.
// The chars slice is the full roster in join order; dead characters are
// never targeted but keep their index so hit reports stay addressable.
func (b *Boss) ExecuteSkill(index int, size grid.Size, chars []*character.Character, rng *rand.Rand) *SkillReport {
	skill := b.Flavor.Skills[index]
	report := &SkillReport{Skill: skill.Name}

	targets := alivePositions(chars)
	for _, step := range skill.Steps {
		cells := step.Select.Cells(size, b.Pos, targets, rng)
		report.Cells = append(report.Cells, cells...)
		report.Hits = append(report.Hits, Hit(cells, chars, step.Damage)...)
	}

	return report
}

// alivePositions collects the positions of living characters in roster
// order, which the distance tie-breaks depend on.
func alivePositions(chars []*character.Character) []grid.Cell {
	var cells []grid.Cell
	for _, ch := range chars {
		if ch != nil && ch.Alive() {
			cells = append(cells, ch.Pos)
		}
	}
	return cells
}

// SkillPolicy picks which of the four skills the boss uses on its turn
type SkillPolicy interface {
	Next(b *Boss) int
}

// randomSkillPolicy chooses uniformly among the four skills
type randomSkillPolicy struct {
	rng *rand.Rand
}

// NewRandomSkillPolicy returns the default skill-selection policy: uniform
// random among the four skills.
func NewRandomSkillPolicy(rng *rand.Rand) SkillPolicy {
	return &randomSkillPolicy{rng: rng}
}

// Next implements SkillPolicy
func (p *randomSkillPolicy) Next(*Boss) int {
	return p.rng.Intn(4)
}
