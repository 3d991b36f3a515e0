package combat

import (
	"math/rand"

	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
)

// SelectorKind names a target-selection shape. Boss flavors are data tables
// of these instead of one hand-written class per boss.
type SelectorKind string

const (
	// SelectClosest targets the cell of the nearest player
	SelectClosest SelectorKind = "closest"

	// SelectFarthest targets the cell of the farthest player
	SelectFarthest SelectorKind = "farthest"

	// SelectRandom targets the cell of a uniformly chosen player
	SelectRandom SelectorKind = "random"

	// SelectRayToward fires a ray from the boss toward the anchored player
	SelectRayToward SelectorKind = "ray_toward"

	// SelectRaysAround fires rays from the boss in all eight directions
	SelectRaysAround SelectorKind = "rays_around"

	// SelectRect covers the cells within a Chebyshev radius of the boss
	SelectRect SelectorKind = "rect"

	// SelectOffsets covers fixed offsets from the boss position
	SelectOffsets SelectorKind = "offsets"

	// SelectSelf covers only the boss's own cell
	SelectSelf SelectorKind = "self"
)

// Anchor picks which player a player-relative selector aims at
type Anchor string

const (
	AnchorClosest  Anchor = "closest"
	AnchorFarthest Anchor = "farthest"
	AnchorRandom   Anchor = "random"
)

// TargetSelector is one tagged targeting variant. Only the fields relevant
// to its Kind are set.
type TargetSelector struct {
	Kind SelectorKind `json:"kind"`

	// Anchor applies to ray_toward and defaults to the closest player
	Anchor Anchor `json:"anchor,omitempty"`

	// Length bounds a ray; zero means up to the grid boundary
	Length int `json:"length,omitempty"`

	// Radius applies to rect
	Radius int `json:"radius,omitempty"`

	// Offsets applies to offsets
	Offsets []grid.Delta `json:"offsets,omitempty"`
}

// SkillStep pairs a targeting shape with the damage dealt on its cells
type SkillStep struct {
	Select TargetSelector `json:"select"`
	Damage int            `json:"damage"`
}

// Skill is an ordered list of steps executed together as one boss action
type Skill struct {
	Name  string      `json:"name"`
	Steps []SkillStep `json:"steps"`
}

// Cells computes the target cells for the selector. The targets slice holds
// the alive players' positions in roster order; tie-breaks preserve that
// order to keep boss aim deterministic given the same state.
func (s TargetSelector) Cells(size grid.Size, boss grid.Cell, targets []grid.Cell, rng *rand.Rand) []grid.Cell {
	switch s.Kind {
	case SelectClosest, SelectFarthest, SelectRandom:
		if anchor, ok := s.anchorCell(boss, targets, rng); ok {
			return []grid.Cell{anchor}
		}
		return nil

	case SelectRayToward:
		anchor, ok := s.anchorCell(boss, targets, rng)
		if !ok {
			return nil
		}
		d := grid.DeltaToward(boss, anchor, 1)
		return grid.Ray(boss, d, size, s.Length)

	case SelectRaysAround:
		var cells []grid.Cell
		for _, nb := range grid.Neighbors8(boss) {
			d := grid.DeltaToward(boss, nb, 1)
			cells = append(cells, grid.Ray(boss, d, size, s.Length)...)
		}
		return cells

	case SelectRect:
		return grid.Rect(boss, s.Radius, size)

	case SelectOffsets:
		var cells []grid.Cell
		for _, off := range s.Offsets {
			c := boss.Add(off)
			if size.Contains(c) {
				cells = append(cells, c)
			}
		}
		return cells

	case SelectSelf:
		return []grid.Cell{boss}
	}

	return nil
}

// anchorCell resolves the player-relative anchor for this selector
func (s TargetSelector) anchorCell(boss grid.Cell, targets []grid.Cell, rng *rand.Rand) (grid.Cell, bool) {
	if len(targets) == 0 {
		return grid.Cell{}, false
	}

	anchor := s.Anchor
	switch s.Kind {
	case SelectFarthest:
		anchor = AnchorFarthest
	case SelectRandom:
		anchor = AnchorRandom
	case SelectClosest:
		anchor = AnchorClosest
	}

	switch anchor {
	case AnchorFarthest:
		return targets[grid.Farthest(boss, targets)], true
	case AnchorRandom:
		return targets[rng.Intn(len(targets))], true
	default:
		return targets[grid.Closest(boss, targets)], true
	}
}

// HitResult records one character taking damage from a hit sequence
type HitResult struct {
	TargetIndex int `json:"target_index"`
	Damage      int `json:"damage"`
}

// Hit applies raw damage to every living character standing on one of the
// cells. Each character takes max(0, damage-armor) and HP never drops below
// zero. Damage zero is a no-op for armored and unarmored targets alike.
func Hit(cells []grid.Cell, chars []*character.Character, damage int) []HitResult {
	var results []HitResult
	for _, cell := range cells {
		for i, ch := range chars {
			if ch == nil || !ch.Alive() || ch.Pos != cell {
				continue
			}
			applied := ch.OnHit(damage)
			results = append(results, HitResult{TargetIndex: i, Damage: applied})
		}
	}
	return results
}
