package dice

import "math/rand"

// Rotation is one quarter-turn of the cube as seen by the observer.
// The numeric values are part of the wire format: clients replay the
// tumble animation from them.
type Rotation int

const (
	RotateRight Rotation = iota
	RotateLeft
	RotateBottom
	RotateTop
)

// reverse returns the rotation that would undo r. A tumble never follows a
// rotation with its reverse, otherwise the die looks like it wobbles in place.
func (r Rotation) reverse() Rotation {
	switch r {
	case RotateRight:
		return RotateLeft
	case RotateLeft:
		return RotateRight
	case RotateBottom:
		return RotateTop
	default:
		return RotateBottom
	}
}

// TumbleStep is one rotation of the tumble plus the face left on top after it
type TumbleStep struct {
	Rotation Rotation `json:"rotation"`
	Top      int      `json:"top"`
}

// Cube models the orientation of a six-sided die.
//
// The initial orientation looks at the one: 2 on the left, 3 below (front),
// 4 above (back), 5 on the right, 6 opposite.
type Cube struct {
	top, bottom, left, right, front, back int
}

// NewCube returns a die in the initial orientation
func NewCube() *Cube {
	return &Cube{top: 1, left: 2, front: 3, back: 4, right: 5, bottom: 6}
}

// Top returns the face currently on top
func (c *Cube) Top() int {
	return c.top
}

// Rotate applies one quarter-turn
func (c *Cube) Rotate(r Rotation) {
	switch r {
	case RotateTop:
		c.top, c.back, c.bottom, c.front = c.front, c.top, c.back, c.bottom
	case RotateBottom:
		c.top, c.front, c.bottom, c.back = c.back, c.top, c.front, c.bottom
	case RotateLeft:
		c.top, c.left, c.bottom, c.right = c.right, c.top, c.left, c.bottom
	case RotateRight:
		c.top, c.right, c.bottom, c.left = c.left, c.top, c.right, c.bottom
	}
}

// Tumble rolls the die with a random sequence of steps quarter-turns and
// returns the sequence plus the final top face. If steps is 0 a random
// length between 10 and 25 is used.
func (c *Cube) Tumble(steps int) ([]TumbleStep, int) {
	if steps == 0 {
		steps = 10 + rand.Intn(16)
	}

	out := make([]TumbleStep, 0, steps)
	last := Rotation(-1)
	for i := 0; i < steps; i++ {
		candidates := make([]Rotation, 0, 4)
		for _, r := range []Rotation{RotateRight, RotateLeft, RotateBottom, RotateTop} {
			if last >= 0 && r == last.reverse() {
				continue
			}
			candidates = append(candidates, r)
		}

		last = candidates[rand.Intn(len(candidates))]
		c.Rotate(last)
		out = append(out, TumbleStep{Rotation: last, Top: c.top})
	}

	return out, c.top
}
