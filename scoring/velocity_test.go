package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scholar-score/models"
)

func TestDrawdownVelocity(t *testing.T) {
	tests := []struct {
		name       string
		dd, rf     *float64
		wantRating models.VelocityRating
		wantValue  float64
	}{
		{"no drawdown data", nil, f(2), models.VelocityControlled, 0},
		{"zero drawdown", f(0), nil, models.VelocityControlled, 0},
		{"full recovery halves weight", f(8), f(3), models.VelocityControlled, 4},
		{"moderate", f(12), f(2.5), models.VelocityModerate, 7},
		{"no recovery data", f(20), nil, models.VelocityFast, 20},
		{"negative recovery is ignored", f(20), f(-1), models.VelocityFast, 20},
		{"crash", f(40), nil, models.VelocityCrash, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DrawdownVelocity(tt.dd, tt.rf)
			assert.Equal(t, tt.wantRating, got.Rating)
			assert.InDelta(t, tt.wantValue, got.Value, 0.01)
		})
	}
}
