package dice

// randomRoller implements Roller using the package-level roll functions
type randomRoller struct{}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	return Roll(count, sides, bonus)
}

// RollCube implements Roller.RollCube
func (r *randomRoller) RollCube(bonus int) (*CubeRoll, error) {
	steps, face := NewCube().Tumble(0)
	return &CubeRoll{
		Steps: steps,
		Face:  face,
		Bonus: bonus,
		Total: face + bonus,
	}, nil
}
