package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
)

func TestLadder_Color(t *testing.T) {
	l := NewLadder(config.LadderConfig{Green: 350, LightGreen: 300, Yellow: 220})

	tests := []struct {
		pricePerSqft float64
		want         model.ZoneColor
	}{
		{400, model.ZoneGreen},
		{350, model.ZoneGreen}, // boundary is inclusive
		{349.99, model.ZoneLightGreen},
		{300, model.ZoneLightGreen},
		{299.99, model.ZoneYellow},
		{220, model.ZoneYellow},
		{219.99, model.ZoneRed},
		{0, model.ZoneRed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Color(tt.pricePerSqft), "price %v", tt.pricePerSqft)
	}
}
