package models

// Theme is a fixed taxonomy category used to bucket visitor-review text.
type Theme string

const (
	ThemeCulturalHeritage  Theme = "cultural_heritage"
	ThemeServiceStaff      Theme = "service_staff"
	ThemeAccessibility     Theme = "accessibility"
	ThemeValueForMoney     Theme = "value_for_money"
	ThemeFacilities        Theme = "facilities"
	ThemeSafetyCleanliness Theme = "safety_cleanliness"
	ThemeFoodBeverage      Theme = "food_beverage"
	ThemeNatureScenery     Theme = "nature_scenery"
)

// Themes lists the review taxonomy in display order.
var Themes = []Theme{
	ThemeCulturalHeritage,
	ThemeServiceStaff,
	ThemeAccessibility,
	ThemeValueForMoney,
	ThemeFacilities,
	ThemeSafetyCleanliness,
	ThemeFoodBeverage,
	ThemeNatureScenery,
}

// Label is the total display-name mapping for review themes.
func (t Theme) Label() string {
	switch t {
	case ThemeCulturalHeritage:
		return "Cultural Heritage"
	case ThemeServiceStaff:
		return "Service & Staff"
	case ThemeAccessibility:
		return "Accessibility"
	case ThemeValueForMoney:
		return "Value for Money"
	case ThemeFacilities:
		return "Facilities"
	case ThemeSafetyCleanliness:
		return "Safety & Cleanliness"
	case ThemeFoodBeverage:
		return "Food & Beverage"
	case ThemeNatureScenery:
		return "Nature & Scenery"
	}
	return string(t)
}

// SentimentDistribution carries raw positive/neutral/negative mention counts.
// The derivation engine passes these through unchanged for display.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// ThemeScore is one stakeholder's sentiment for one theme. Score lies in
// [-1, 1]; Mentions == 0 means the theme never came up in that stakeholder's
// reviews and the record must be excluded from theme averages.
type ThemeScore struct {
	Score        float64               `json:"score"`
	Mentions     int                   `json:"mentions"`
	Distribution SentimentDistribution `json:"distribution"`
}

// ManagementResponse summarizes how often the stakeholder replies to reviews.
type ManagementResponse struct {
	Responded    int     `json:"responded"`
	ResponseRate float64 `json:"response_rate"`
}

// SentimentRecord is the per-stakeholder visitor-review aggregate produced by
// the external sentiment pipeline. OverallSentiment lies in [-1, 1],
// PositiveRate in [0, 100].
type SentimentRecord struct {
	StakeholderName      string               `json:"stakeholder_name"`
	TotalReviews         int                  `json:"total_reviews"`
	AverageRating        float64              `json:"average_rating"`
	OverallSentiment     float64              `json:"overall_sentiment"`
	PositiveRate         float64              `json:"positive_rate"`
	ThemeScores          map[Theme]ThemeScore `json:"theme_scores"`
	LanguageDistribution map[string]int       `json:"language_distribution"`
	YearDistribution     map[string]int       `json:"year_distribution"`
	CriticalAreas        []string             `json:"critical_areas"`
	ManagementResponse   ManagementResponse   `json:"management_response"`
}

// ThemeAggregate is a theme's rollup across many stakeholders. Average covers
// only stakeholders with at least one mention of the theme.
type ThemeAggregate struct {
	Average      float64               `json:"average"`
	Mentions     int                   `json:"mentions"`
	Stakeholders int                   `json:"stakeholders"`
	Distribution SentimentDistribution `json:"distribution"`
}

// ThemeComparison pairs one theme's aggregate from two record collections
// (e.g. local reviews vs international tour operators). Gap = AvgA - AvgB.
// Themes with zero mentions in either group never appear in a comparison.
type ThemeComparison struct {
	Theme     Theme   `json:"theme"`
	AvgA      float64 `json:"avg_a"`
	AvgB      float64 `json:"avg_b"`
	Gap       float64 `json:"gap"`
	MentionsA int     `json:"mentions_a"`
	MentionsB int     `json:"mentions_b"`
}
