package content

import (
	"math/rand"

	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// skill-table helpers keep the flavor list readable

func step(sel combat.TargetSelector, damage int) combat.SkillStep {
	return combat.SkillStep{Select: sel, Damage: damage}
}

func skill(name string, steps ...combat.SkillStep) combat.Skill {
	return combat.Skill{Name: name, Steps: steps}
}

func rayToward(anchor combat.Anchor, length int) combat.TargetSelector {
	return combat.TargetSelector{Kind: combat.SelectRayToward, Anchor: anchor, Length: length}
}

func raysAround(length int) combat.TargetSelector {
	return combat.TargetSelector{Kind: combat.SelectRaysAround, Length: length}
}

func rect(radius int) combat.TargetSelector {
	return combat.TargetSelector{Kind: combat.SelectRect, Radius: radius}
}

func single(kind combat.SelectorKind) combat.TargetSelector {
	return combat.TargetSelector{Kind: kind}
}

func cross() combat.TargetSelector {
	return combat.TargetSelector{Kind: combat.SelectOffsets, Offsets: []grid.Delta{
		{Row: -1, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: 0, Col: 1},
	}}
}

// flavors is the boss roster. Base HP values come from the game's balance
// sheet; each flavor is only a data table over the shared skill interpreter.
var flavors = []combat.Flavor{
	{
		Name:   "Soul Stealer",
		BaseHP: 20,
		Damage: 3,
		Skills: [4]combat.Skill{
			skill("soul grasp", step(single(combat.SelectClosest), 4)),
			skill("wailing ring", step(rect(1), 3)),
			skill("spirit lance", step(rayToward(combat.AnchorClosest, 3), 3)),
			skill("last breath", step(single(combat.SelectRandom), 5)),
		},
	},
	{
		Name:   "Countess Dracula",
		BaseHP: 30,
		Damage: 3,
		Skills: [4]combat.Skill{
			skill("blood kiss", step(single(combat.SelectClosest), 4)),
			skill("bat swarm", step(rect(2), 2)),
			skill("crimson ray", step(rayToward(combat.AnchorClosest, 4), 3)),
			skill("night veil", step(raysAround(1), 3)),
		},
	},
	{
		Name:    "Half-Wolf",
		BaseHP:  35,
		Damage:  4,
		Counter: combat.CounterAlways,
		Skills: [4]combat.Skill{
			skill("rend", step(single(combat.SelectClosest), 5)),
			skill("howl", step(rect(1), 3)),
			skill("lunge", step(rayToward(combat.AnchorClosest, 2), 4)),
			skill("frenzy", step(cross(), 4)),
		},
	},
	{
		Name:   "Nightmare",
		BaseHP: 35,
		Damage: 3,
		Skills: [4]combat.Skill{
			skill("dread gaze", step(single(combat.SelectFarthest), 4)),
			skill("terror wave", step(raysAround(2), 3)),
			skill("dark coil", step(rect(1), 4)),
			skill("phantom bolt", step(single(combat.SelectRandom), 5)),
		},
	},
	{
		Name:   "Earth Golem",
		BaseHP: 40,
		Damage: 5,
		Skills: [4]combat.Skill{
			skill("boulder throw", step(single(combat.SelectFarthest), 5)),
			skill("quake", step(rect(2), 3)),
			skill("fissure", step(rayToward(combat.AnchorClosest, 0), 4)),
			skill("stone fists", step(cross(), 5)),
		},
	},
	{
		Name:   "Goblin King",
		BaseHP: 40,
		Damage: 3,
		Skills: [4]combat.Skill{
			skill("crown strike", step(single(combat.SelectClosest), 4)),
			skill("rabble rush", step(raysAround(1), 3)),
			skill("spear volley", step(rayToward(combat.AnchorFarthest, 0), 3)),
			skill("royal tantrum", step(rect(1), 4)),
		},
	},
	{
		Name:   "Guardian of the Ruins",
		BaseHP: 40,
		Damage: 4,
		Skills: [4]combat.Skill{
			skill("warding pulse", step(rect(1), 4)),
			skill("judgement ray", step(rayToward(combat.AnchorClosest, 5), 4)),
			skill("ancient wrath", step(raysAround(2), 3)),
			skill("sentence", step(single(combat.SelectClosest), 6)),
		},
	},
	{
		Name:   "Fallen Angel",
		BaseHP: 45,
		Damage: 4,
		Skills: [4]combat.Skill{
			skill("feather storm", step(raysAround(0), 2)),
			skill("smite", step(single(combat.SelectClosest), 5)),
			skill("halo burst", step(rect(2), 3)),
			skill("piercing light", step(rayToward(combat.AnchorFarthest, 0), 4)),
		},
	},
	{
		Name:   "Diablo",
		BaseHP: 50,
		Damage: 5,
		Skills: [4]combat.Skill{
			skill("hellfire", step(rect(2), 4)),
			skill("soul flame", step(single(combat.SelectRandom), 6)),
			skill("infernal ray", step(rayToward(combat.AnchorClosest, 0), 5)),
			skill("dark nova", step(raysAround(3), 4)),
		},
	},
	{
		Name:   "Magic Master",
		BaseHP: 65,
		Damage: 4,
		Skills: [4]combat.Skill{
			skill("arcane dart", step(rayToward(combat.AnchorClosest, 5), 4)),
			skill("mirror barrage", step(rayToward(combat.AnchorClosest, 1), 3), step(rayToward(combat.AnchorFarthest, 1), 3)),
			skill("mana storm", step(rect(2), 3)),
			skill("polar bolt", step(single(combat.SelectFarthest), 6)),
		},
	},
	{
		Name:    "Bow Master",
		BaseHP:  75,
		Damage:  3,
		Counter: combat.CounterNever,
		Skills: [4]combat.Skill{
			skill("snap shot", step(rayToward(combat.AnchorClosest, 2), 3)),
			skill("arrow rain", step(raysAround(0), 5)),
			skill("piercing arrow", step(rayToward(combat.AnchorClosest, 5), 4)),
			skill("long shot", step(single(combat.SelectFarthest), 5)),
		},
	},
	{
		Name:   "Sword Master",
		BaseHP: 80,
		Damage: 5,
		Skills: [4]combat.Skill{
			skill("crescent slash", step(rect(1), 5)),
			skill("blade wave", step(rayToward(combat.AnchorClosest, 4), 4)),
			skill("dancing steel", step(cross(), 5)),
			skill("execution", step(single(combat.SelectClosest), 7)),
		},
	},
	{
		Name:   "Aboba",
		BaseHP: 100,
		Damage: 4,
		Skills: [4]combat.Skill{
			skill("bellow", step(rect(2), 4)),
			skill("flail", step(raysAround(2), 4)),
			skill("grab", step(single(combat.SelectClosest), 6)),
			skill("ground slam", step(cross(), 5), step(rect(1), 2)),
		},
	},
	{
		Name:    "Shield Master",
		BaseHP:  125,
		Damage:  3,
		Counter: combat.CounterAlways,
		Skills: [4]combat.Skill{
			skill("shield bash", step(single(combat.SelectClosest), 4)),
			skill("rampart spin", step(rect(1), 4)),
			skill("bulwark charge", step(rayToward(combat.AnchorClosest, 3), 4)),
			skill("iron echo", step(raysAround(1), 3)),
		},
	},
}

// Flavors returns the full boss roster
func Flavors() []combat.Flavor {
	out := make([]combat.Flavor, len(flavors))
	copy(out, flavors)
	return out
}

// FlavorForLevel picks the boss for a level: a random flavor among those
// the party has not necessarily outgrown. Early levels draw from the
// weaker half of the roster, later levels from the whole of it.
func FlavorForLevel(lvl int, rng *rand.Rand) combat.Flavor {
	pool := len(flavors)
	if lvl <= 2 {
		pool = len(flavors) / 2
	}
	return flavors[rng.Intn(pool)]
}
