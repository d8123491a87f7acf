// Package classify assigns price-tier colors to streets from comparable
// sales evidence.
package classify

import (
	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
)

// Ladder maps a price-per-sqft value onto a zone color by descending
// cutoffs. Everything below the yellow cutoff is red.
type Ladder struct {
	green      float64
	lightGreen float64
	yellow     float64
}

// NewLadder builds a Ladder from validated config cutoffs.
func NewLadder(cfg config.LadderConfig) Ladder {
	return Ladder{green: cfg.Green, lightGreen: cfg.LightGreen, yellow: cfg.Yellow}
}

// Color returns the tier for the given median price per square foot.
func (l Ladder) Color(pricePerSqft float64) model.ZoneColor {
	switch {
	case pricePerSqft >= l.green:
		return model.ZoneGreen
	case pricePerSqft >= l.lightGreen:
		return model.ZoneLightGreen
	case pricePerSqft >= l.yellow:
		return model.ZoneYellow
	default:
		return model.ZoneRed
	}
}
