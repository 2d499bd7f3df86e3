// Package strike computes at-the-money strike prices.
package strike

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a caller-supplied value violates a
// precondition (negative spot price, non-positive strike step).
var ErrInvalidInput = errors.New("invalid input")

// ResolveATM rounds spot to the nearest strike on the given step grid.
// Remainders below half a step round down, everything else rounds up, so an
// exact midpoint rounds up (spot 125 with step 50 resolves to 150).
func ResolveATM(spot, step float64) (float64, error) {
	if spot < 0 {
		return 0, fmt.Errorf("%w: spot price %.2f must be non-negative", ErrInvalidInput, spot)
	}
	if step <= 0 {
		return 0, fmt.Errorf("%w: strike step %.2f must be positive", ErrInvalidInput, step)
	}

	remainder := math.Mod(spot, step)
	if remainder < step/2 {
		return spot - remainder, nil
	}
	return spot - remainder + step, nil
}
