// Package assess is the derivation engine: pure, synchronous functions that
// turn raw per-stakeholder records into the sector rollups, gap reports and
// theme aggregates the dashboard views render. Nothing here performs I/O,
// throws on empty input, or emits NaN; missing data is represented as omitted
// keys or nil pointers.
package assess

import (
	"github.com/ndiaye/readiness-dashboard/internal/models"
)

// SectorAverages groups stakeholders by sector and computes the per-sector
// rollup: counts, mean scores, maturity distribution and category averages.
// Sectors with no stakeholders simply do not appear; an empty input yields an
// empty map, never an error.
func SectorAverages(stakeholders []models.Stakeholder, p *Policy) map[string]models.SectorAggregate {
	bySector := make(map[string][]models.Stakeholder)
	for _, s := range stakeholders {
		if s.Sector == "" {
			continue
		}
		bySector[s.Sector] = append(bySector[s.Sector], s)
	}

	aggregates := make(map[string]models.SectorAggregate, len(bySector))
	for sector, members := range bySector {
		agg := models.SectorAggregate{
			Sector:               sector,
			Count:                len(members),
			MaturityDistribution: make(map[models.MaturityLevel]int),
			CategoryAverages:     make(map[models.Category]float64),
		}

		var sumExternal, sumSurvey, sumCombined float64
		categorySums := make(map[models.Category]float64)
		categoryCounts := make(map[models.Category]int)

		for _, s := range members {
			sumExternal += s.ExternalScore
			sumSurvey += s.SurveyScore
			sumCombined += s.CombinedScore
			agg.MaturityDistribution[p.Classify(s.CombinedScore)]++

			for category, score := range s.CategoryScores {
				if !category.Valid() {
					// Unknown key from an upstream schema change: skip the
					// value rather than polluting the chart.
					continue
				}
				categorySums[category] += score
				categoryCounts[category]++
			}
		}

		n := float64(len(members))
		agg.AvgExternal = sumExternal / n
		agg.AvgSurvey = sumSurvey / n
		agg.AvgCombined = sumCombined / n

		// Category charts source from the same grouping as the score tiles so
		// the dashboard never shows drifting numbers for one sector.
		for category, sum := range categorySums {
			agg.CategoryAverages[category] = sum / float64(categoryCounts[category])
		}

		aggregates[sector] = agg
	}

	return aggregates
}

// MaturityDistribution buckets every stakeholder into exactly one band.
func MaturityDistribution(stakeholders []models.Stakeholder, p *Policy) map[models.MaturityLevel]int {
	dist := make(map[models.MaturityLevel]int)
	for _, s := range stakeholders {
		dist[p.Classify(s.CombinedScore)]++
	}
	return dist
}

// Coverage returns participantsWithData/total as a percentage, or nil when
// the sector has no participants at all. Callers render nil as "no data",
// never as 0% or NaN.
func Coverage(withData, total int) *float64 {
	if total <= 0 {
		return nil
	}
	pct := float64(withData) / float64(total) * 100
	return &pct
}
