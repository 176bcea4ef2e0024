package scoring

import (
	"math"

	"scholar-score/formulas"
	"scholar-score/models"
)

// Velocity zone upper bounds (exclusive).
const (
	velocityControlledBelow = 5.0
	velocityModerateBelow   = 15.0
	velocityFastBelow       = 30.0
)

// DrawdownVelocity weighs drawdown depth by recovery ability: a recovery factor of 3 or
// more halves the drawdown's weight, no recovery data leaves it at full weight.
func DrawdownVelocity(maxDrawdownPct, recoveryFactor *float64) models.DrawdownVelocity {
	dd, ok := formulas.Value(maxDrawdownPct)
	if !ok || dd == 0 {
		return models.DrawdownVelocity{Rating: models.VelocityControlled, Value: 0}
	}

	penalty := 1.0
	if rf, ok := formulas.Value(recoveryFactor); ok && rf > 0 {
		penalty = math.Max(0, 1-rf/3)
	}

	value := dd * (0.5 + penalty*0.5)

	var rating models.VelocityRating
	switch {
	case value < velocityControlledBelow:
		rating = models.VelocityControlled
	case value < velocityModerateBelow:
		rating = models.VelocityModerate
	case value < velocityFastBelow:
		rating = models.VelocityFast
	default:
		rating = models.VelocityCrash
	}

	return models.DrawdownVelocity{Rating: rating, Value: formulas.Round2(value)}
}
