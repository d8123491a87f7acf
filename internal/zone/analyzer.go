// Package zone scores the investment quality of an area from the color
// distribution of the properties around a point.
package zone

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/parcelworks/landscout/internal/classify"
	"github.com/parcelworks/landscout/internal/geo"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

const (
	// DefaultRadiusMiles is the standard scan radius around a point.
	DefaultRadiusMiles = 1.0

	// DefaultMinSample is how many colored properties a scan needs before
	// the score is meaningful.
	DefaultMinSample = 5

	baseScore = 40.0
)

// Analyzer scores areas by classifying each nearby property onto the ladder
// and weighing the resulting color mix.
type Analyzer struct {
	store  store.Store
	ladder classify.Ladder
}

// NewAnalyzer creates an area analyzer using the given ladder.
func NewAnalyzer(st store.Store, ladder classify.Ladder) *Analyzer {
	return &Analyzer{store: st, ladder: ladder}
}

// ScoreArea analyzes the properties within radiusMiles of center. Results
// are computed fresh on every call and never persisted. When fewer than
// minSample properties carry a price per sqft, the result is explicitly
// marked insufficient with a zero score.
func (a *Analyzer) ScoreArea(ctx context.Context, center model.Coordinate, radiusMiles float64, minSample int) (*model.AreaScore, error) {
	bounds := geo.BoundsFor(center, radiusMiles)

	candidates, err := a.store.FindComparables(ctx, store.ComparableFilter{
		HasCoordinate:       true,
		RequirePricePerSqft: true,
		Bounds:              &bounds,
	})
	if err != nil {
		return nil, eris.Wrap(err, "zone: area candidates")
	}

	result := &model.AreaScore{
		Center:      center,
		RadiusMiles: radiusMiles,
		Counts:      make(map[model.ZoneColor]int),
	}

	for _, c := range candidates {
		coord, ok := c.Coordinate()
		if !ok {
			continue
		}
		if geo.Distance(center, coord) > radiusMiles {
			continue
		}
		result.Counts[a.ladder.Color(*c.PricePerSqft)]++
		result.Analyzed++
	}

	if result.Analyzed < minSample {
		result.Recommendation = fmt.Sprintf("Insufficient data: only %d properties within %.1f miles", result.Analyzed, radiusMiles)
		return result, nil
	}
	result.Sufficient = true

	total := float64(result.Analyzed)
	result.GreenPercent = float64(result.Counts[model.ZoneGreen]) / total * 100
	result.LightPercent = float64(result.Counts[model.ZoneLightGreen]) / total * 100
	result.YellowPercent = float64(result.Counts[model.ZoneYellow]) / total * 100
	result.RedPercent = float64(result.Counts[model.ZoneRed]) / total * 100
	result.CombinedPercent = result.GreenPercent + result.LightPercent

	result.Score = investmentScore(result)
	result.Recommendation = recommendation(result.Score, result.CombinedPercent)
	return result, nil
}

// investmentScore weighs the color mix: green and light green zones raise
// the score, red lowers it, and a concentration bonus kicks in once the
// combined green share clears the alert thresholds. Clamped to 0..100.
func investmentScore(r *model.AreaScore) int {
	score := baseScore
	score += r.GreenPercent / 25 * 35
	score += r.LightPercent / 25 * 25
	score += r.YellowPercent / 25 * 10
	score -= r.RedPercent / 25 * 25

	switch {
	case r.CombinedPercent >= 75:
		score += 25
	case r.CombinedPercent >= 60:
		score += 15
	case r.CombinedPercent >= 50:
		score += 10
	case r.CombinedPercent >= 40:
		score += 5
	}

	return int(math.Max(0, math.Min(100, score)))
}

func recommendation(score int, greenPercent float64) string {
	switch {
	case score >= 85:
		return fmt.Sprintf("EXCELLENT OPPORTUNITY! %.0f%% green zones. Premium location with strong appreciation.", greenPercent)
	case score >= 70:
		return fmt.Sprintf("VERY GOOD location. %.0f%% green zones. Above 50%% threshold - good investment.", greenPercent)
	case score >= 55:
		return fmt.Sprintf("GOOD opportunity. %.0f%% green zones. Meets 50%% threshold for alerts.", greenPercent)
	case score >= 40:
		return fmt.Sprintf("MODERATE area. %.0f%% green zones. Just below 50%% threshold - review carefully.", greenPercent)
	case score >= 25:
		return fmt.Sprintf("BELOW AVERAGE area. Only %.0f%% green zones. Under 50%% threshold - caution advised.", greenPercent)
	default:
		return fmt.Sprintf("POOR location. Only %.0f%% green zones. Well below 50%% threshold - high risk.", greenPercent)
	}
}

// BestZone is one high-scoring scan center from FindBest.
type BestZone struct {
	CenterAddress  string  `json:"center_address"`
	City           string  `json:"city"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Score          int     `json:"score"`
	GreenPercent   float64 `json:"green_zones_percent"`
	Analyzed       int     `json:"properties_analyzed"`
	Recommendation string  `json:"recommendation"`
}

// FindBest scans areas around up to sampleSize existing properties (filtered
// by city when given) and returns those scoring at least minScore, best
// first.
func (a *Analyzer) FindBest(ctx context.Context, city string, minScore, sampleSize int) ([]BestZone, error) {
	centers, err := a.store.FindComparables(ctx, store.ComparableFilter{
		City:          city,
		HasCoordinate: true,
		Limit:         sampleSize,
	})
	if err != nil {
		return nil, eris.Wrap(err, "zone: sample centers")
	}

	var best []BestZone
	for _, c := range centers {
		coord, ok := c.Coordinate()
		if !ok {
			continue
		}
		result, err := a.ScoreArea(ctx, coord, DefaultRadiusMiles, DefaultMinSample)
		if err != nil {
			return nil, err
		}
		if !result.Sufficient || result.Score < minScore {
			continue
		}
		best = append(best, BestZone{
			CenterAddress:  c.Address,
			City:           c.City,
			Lat:            coord.Lat,
			Lon:            coord.Lon,
			Score:          result.Score,
			GreenPercent:   result.CombinedPercent,
			Analyzed:       result.Analyzed,
			Recommendation: result.Recommendation,
		})
	}

	sort.Slice(best, func(i, j int) bool { return best[i].Score > best[j].Score })
	return best, nil
}
