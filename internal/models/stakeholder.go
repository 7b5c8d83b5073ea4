package models

// MaturityLevel is one of the five ordered readiness bands a stakeholder's
// combined score falls into.
type MaturityLevel string

const (
	MaturityAbsent       MaturityLevel = "absent"
	MaturityEmerging     MaturityLevel = "emerging"
	MaturityIntermediate MaturityLevel = "intermediate"
	MaturityAdvanced     MaturityLevel = "advanced"
	MaturityExpert       MaturityLevel = "expert"
)

// MaturityLevels lists the bands in ascending order.
var MaturityLevels = []MaturityLevel{
	MaturityAbsent,
	MaturityEmerging,
	MaturityIntermediate,
	MaturityAdvanced,
	MaturityExpert,
}

// Rank returns the band's position in the ordering (0 = absent). Unknown
// levels rank below absent so they sort first instead of crashing a view.
func (m MaturityLevel) Rank() int {
	for i, level := range MaturityLevels {
		if level == m {
			return i
		}
	}
	return -1
}

// Label returns the display name for a maturity level. The switch is total
// over the declared constants; adding a band without a label is a compile-time
// visible change here rather than a render-time blank.
func (m MaturityLevel) Label() string {
	switch m {
	case MaturityAbsent:
		return "Absent"
	case MaturityEmerging:
		return "Emerging"
	case MaturityIntermediate:
		return "Intermediate"
	case MaturityAdvanced:
		return "Advanced"
	case MaturityExpert:
		return "Expert"
	}
	return string(m)
}

// Stakeholder is one assessed organization as produced by the external
// assessment pipeline. Read-only in this layer; identity is the free-text
// Name, which is not guaranteed unique across datasets (joins go through
// the match package).
type Stakeholder struct {
	Name           string               `json:"name"`
	Sector         string               `json:"sector"`
	Region         string               `json:"region"`
	ExternalScore  float64              `json:"external_score"`
	SurveyScore    float64              `json:"survey_score"`
	CombinedScore  float64              `json:"combined_score"`
	MaturityLevel  MaturityLevel        `json:"maturity_level"`
	PresenceLinks  []string             `json:"presence_links"`
	CategoryScores map[Category]float64 `json:"category_scores"`
}

// SectorAggregate is the derived per-sector rollup. Never persisted;
// recomputed from the stakeholder set on every read.
type SectorAggregate struct {
	Sector               string                `json:"sector"`
	Count                int                   `json:"count"`
	AvgExternal          float64               `json:"avg_external"`
	AvgSurvey            float64               `json:"avg_survey"`
	AvgCombined          float64               `json:"avg_combined"`
	MaturityDistribution map[MaturityLevel]int `json:"maturity_distribution"`
	CategoryAverages     map[Category]float64  `json:"category_averages"`
}
