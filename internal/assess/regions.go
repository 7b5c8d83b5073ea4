package assess

import (
	"github.com/ndiaye/readiness-dashboard/internal/models"
)

// RegionAggregate is the derived per-region rollup for the region analysis
// view. Same rules as sectors: empty regions are omitted, never zeroed.
type RegionAggregate struct {
	Region               string                       `json:"region"`
	Count                int                          `json:"count"`
	AvgCombined          float64                      `json:"avg_combined"`
	Sectors              map[string]int               `json:"sectors"`
	MaturityDistribution map[models.MaturityLevel]int `json:"maturity_distribution"`
}

// RegionAverages groups stakeholders by region.
func RegionAverages(stakeholders []models.Stakeholder, p *Policy) map[string]RegionAggregate {
	byRegion := make(map[string][]models.Stakeholder)
	for _, s := range stakeholders {
		if s.Region == "" {
			continue
		}
		byRegion[s.Region] = append(byRegion[s.Region], s)
	}

	aggregates := make(map[string]RegionAggregate, len(byRegion))
	for region, members := range byRegion {
		agg := RegionAggregate{
			Region:               region,
			Count:                len(members),
			Sectors:              make(map[string]int),
			MaturityDistribution: make(map[models.MaturityLevel]int),
		}
		var sum float64
		for _, s := range members {
			sum += s.CombinedScore
			agg.Sectors[s.Sector]++
			agg.MaturityDistribution[p.Classify(s.CombinedScore)]++
		}
		agg.AvgCombined = sum / float64(len(members))
		aggregates[region] = agg
	}

	return aggregates
}
