package models

// PlanItem is one recommended action from a participant's improvement plan.
type PlanItem struct {
	Category       Category `json:"category"`
	Recommendation string   `json:"recommendation"`
	Priority       string   `json:"priority"` // high, medium, low
}

// ParticipantPlan is the precomputed improvement plan for one stakeholder.
type ParticipantPlan struct {
	StakeholderName string     `json:"stakeholder_name"`
	Summary         string     `json:"summary"`
	Items           []PlanItem `json:"items"`
}

// PresenceLink is one audited digital touchpoint of a stakeholder.
type PresenceLink struct {
	URL      string `json:"url"`
	Platform string `json:"platform"` // website, facebook, instagram, tripadvisor, ...
	Active   bool   `json:"active"`
}

// ParticipantPresence lists a stakeholder's observed digital touchpoints.
type ParticipantPresence struct {
	StakeholderName string         `json:"stakeholder_name"`
	Links           []PresenceLink `json:"links"`
}

// Justification explains one category score with observed evidence.
type Justification struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`
	Evidence string   `json:"evidence"`
}

// OpportunityItem is one growth opportunity surfaced for a stakeholder.
type OpportunityItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// DashboardSummary is the precomputed overview document for the admin
// dashboard's headline tiles.
type DashboardSummary struct {
	TotalParticipants int     `json:"total_participants"`
	TotalSectors      int     `json:"total_sectors"`
	AvgCombinedScore  float64 `json:"avg_combined_score"`
	LastUpdated       string  `json:"last_updated"`
}
