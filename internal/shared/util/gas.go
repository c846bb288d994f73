package util

// Gas is a step budget for walks over graphs that may contain cycles.
// Running out is an ordinary "no answer", never an error.
type Gas struct {
	remaining int
}

func NewGas(steps int) Gas {
	if steps < 0 {
		steps = 0
	}
	return Gas{remaining: steps}
}

// Stop consumes one step and reports whether the budget was already spent.
func (g *Gas) Stop() bool {
	if g.remaining <= 0 {
		return true
	}
	g.remaining--
	return false
}

// Remaining returns the number of steps left.
func (g Gas) Remaining() int {
	return g.remaining
}
