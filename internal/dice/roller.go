package dice

// CubeRoll is the outcome of tumbling the movement die: the rotation
// sequence for client replay and the resulting face with bonus applied.
type CubeRoll struct {
	Steps []TumbleStep
	Face  int
	Bonus int
	Total int
}

// Roller provides an interface for rolling dice.
// This allows us to inject different implementations for testing.
type Roller interface {
	// Roll rolls a number of dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)

	// RollCube tumbles the movement die and adds a bonus to the final face
	RollCube(bonus int) (*CubeRoll, error)
}
