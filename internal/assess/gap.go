package assess

import (
	"github.com/ndiaye/readiness-dashboard/internal/models"
)

// GapEntry is one category's target-vs-universe comparison on the 0-10 scale.
type GapEntry struct {
	Category    models.Category `json:"category"`
	TargetAvg   float64         `json:"target_avg"`
	UniverseAvg float64         `json:"universe_avg"`
	Gap         float64         `json:"gap"`
}

// GapReport compares one sector against a chosen comparison universe.
// Strengths and Challenges are the categories whose gap crosses the policy
// thresholds; everything in between is neutral.
type GapReport struct {
	Sector     string            `json:"sector"`
	Entries    []GapEntry        `json:"entries"`
	Strengths  []models.Category `json:"strengths"`
	Challenges []models.Category `json:"challenges"`
}

// SectorGaps computes the per-category gap between the target sector and a
// comparison universe. The universe is selected by the caller: nil means
// "all other sectors"; a non-nil slice restricts the comparison to the named
// sectors (excluding the target). Categories missing score data on either
// side are omitted from the report, never treated as zero. Returns nil when
// the target sector has no stakeholders.
func SectorGaps(target string, universeSectors []string, stakeholders []models.Stakeholder, p *Policy) *GapReport {
	var targetMembers, universeMembers []models.Stakeholder

	inUniverse := func(sector string) bool {
		if sector == target {
			return false
		}
		if universeSectors == nil {
			return true
		}
		for _, name := range universeSectors {
			if name == sector {
				return true
			}
		}
		return false
	}

	for _, s := range stakeholders {
		switch {
		case s.Sector == target:
			targetMembers = append(targetMembers, s)
		case inUniverse(s.Sector):
			universeMembers = append(universeMembers, s)
		}
	}

	if len(targetMembers) == 0 {
		return nil
	}

	targetAvgs := categoryAverages(targetMembers)
	universeAvgs := categoryAverages(universeMembers)

	report := &GapReport{Sector: target}
	for _, category := range models.Categories {
		targetAvg, okTarget := targetAvgs[category]
		universeAvg, okUniverse := universeAvgs[category]
		if !okTarget || !okUniverse {
			continue
		}

		gap := targetAvg - universeAvg
		report.Entries = append(report.Entries, GapEntry{
			Category:    category,
			TargetAvg:   targetAvg,
			UniverseAvg: universeAvg,
			Gap:         gap,
		})

		switch {
		case gap > p.Gap.StrengthThreshold:
			report.Strengths = append(report.Strengths, category)
		case gap < p.Gap.ChallengeThreshold:
			report.Challenges = append(report.Challenges, category)
		}
	}

	return report
}

func categoryAverages(members []models.Stakeholder) map[models.Category]float64 {
	sums := make(map[models.Category]float64)
	counts := make(map[models.Category]int)
	for _, s := range members {
		for category, score := range s.CategoryScores {
			if !category.Valid() {
				continue
			}
			sums[category] += score
			counts[category]++
		}
	}

	avgs := make(map[models.Category]float64, len(sums))
	for category, sum := range sums {
		avgs[category] = sum / float64(counts[category])
	}
	return avgs
}
