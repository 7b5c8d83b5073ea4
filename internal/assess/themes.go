package assess

import (
	"github.com/ndiaye/readiness-dashboard/internal/models"
)

// AggregateThemes rolls up theme sentiment across stakeholders. For each
// theme the average covers only records with at least one mention -- a
// stakeholder whose reviews never touch a theme carries no signal for it and
// must not drag the average toward zero. Mention counts are summed and the
// positive/neutral/negative distributions carried through unchanged.
// Themes with no mentions anywhere are absent from the result.
func AggregateThemes(records []models.SentimentRecord) map[models.Theme]models.ThemeAggregate {
	aggregates := make(map[models.Theme]models.ThemeAggregate)

	for _, record := range records {
		for theme, score := range record.ThemeScores {
			if score.Mentions <= 0 {
				continue
			}
			agg := aggregates[theme]
			agg.Average += score.Score // running sum; divided below
			agg.Mentions += score.Mentions
			agg.Stakeholders++
			agg.Distribution.Positive += score.Distribution.Positive
			agg.Distribution.Neutral += score.Distribution.Neutral
			agg.Distribution.Negative += score.Distribution.Negative
			aggregates[theme] = agg
		}
	}

	for theme, agg := range aggregates {
		agg.Average /= float64(agg.Stakeholders)
		aggregates[theme] = agg
	}

	return aggregates
}

// CompareThemes pairs the theme aggregates of two record collections
// (group A minus group B, e.g. local reviews vs international tour
// operators). A theme with zero mentions in either group is omitted from the
// comparison rather than compared against an implicit zero. Results follow
// the taxonomy display order.
func CompareThemes(groupA, groupB []models.SentimentRecord) []models.ThemeComparison {
	aggA := AggregateThemes(groupA)
	aggB := AggregateThemes(groupB)

	var comparisons []models.ThemeComparison
	for _, theme := range models.Themes {
		a, okA := aggA[theme]
		b, okB := aggB[theme]
		if !okA || !okB {
			continue
		}
		comparisons = append(comparisons, models.ThemeComparison{
			Theme:     theme,
			AvgA:      a.Average,
			AvgB:      b.Average,
			Gap:       a.Average - b.Average,
			MentionsA: a.Mentions,
			MentionsB: b.Mentions,
		})
	}

	return comparisons
}

// OverallSentiment averages the overall score across records, or nil for an
// empty collection.
func OverallSentiment(records []models.SentimentRecord) *float64 {
	if len(records) == 0 {
		return nil
	}
	var sum float64
	for _, record := range records {
		sum += record.OverallSentiment
	}
	avg := sum / float64(len(records))
	return &avg
}

// CriticalAreas merges the per-stakeholder critical areas, deduplicated,
// preserving first-seen order.
func CriticalAreas(records []models.SentimentRecord) []string {
	seen := make(map[string]struct{})
	var areas []string
	for _, record := range records {
		for _, area := range record.CriticalAreas {
			if area == "" {
				continue
			}
			if _, ok := seen[area]; ok {
				continue
			}
			seen[area] = struct{}{}
			areas = append(areas, area)
		}
	}
	return areas
}
