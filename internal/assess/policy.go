package assess

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ndiaye/readiness-dashboard/internal/models"
)

//go:embed config/policy.yaml
var policyYAML embed.FS

// Policy holds the tunable constants of the derivation engine: maturity band
// boundaries, gap classification thresholds, and the documented score weights.
type Policy struct {
	MaturityBands []MaturityBand `yaml:"maturity_bands" json:"maturity_bands"`
	Gap           GapPolicy      `yaml:"gap" json:"gap"`
	Weights       ScoreWeights   `yaml:"weights" json:"weights"`
}

// MaturityBand maps combined scores up to (and including) Max to Level.
type MaturityBand struct {
	Level models.MaturityLevel `yaml:"level" json:"level"`
	Max   float64              `yaml:"max" json:"max"`
}

// GapPolicy classifies per-category gaps on the 0-10 category scale.
type GapPolicy struct {
	StrengthThreshold  float64 `yaml:"strength_threshold" json:"strength_threshold"`
	ChallengeThreshold float64 `yaml:"challenge_threshold" json:"challenge_threshold"`
}

// ScoreWeights documents the external/survey split of the combined score.
type ScoreWeights struct {
	External float64 `yaml:"external" json:"external"`
	Survey   float64 `yaml:"survey" json:"survey"`
}

// LoadPolicy reads the embedded policy.yaml and returns a validated Policy.
// The path parameter allows a filesystem override for local experimentation;
// an override that cannot be read is an error, never a silent fallback to
// the embedded defaults.
func LoadPolicy(path string) (*Policy, error) {
	data, err := policyYAML.ReadFile("config/policy.yaml")
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy config: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy config: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if len(p.MaturityBands) == 0 {
		return fmt.Errorf("policy defines no maturity bands")
	}
	sort.Slice(p.MaturityBands, func(i, j int) bool {
		return p.MaturityBands[i].Max < p.MaturityBands[j].Max
	})
	prev := 0.0
	for i, band := range p.MaturityBands {
		if band.Level.Rank() < 0 {
			return fmt.Errorf("policy band %d has unknown level %q", i, band.Level)
		}
		if i > 0 && band.Max <= prev {
			return fmt.Errorf("policy bands overlap at %q", band.Level)
		}
		prev = band.Max
	}
	if p.Gap.StrengthThreshold <= 0 || p.Gap.ChallengeThreshold >= 0 {
		return fmt.Errorf("gap thresholds must straddle zero")
	}
	return nil
}

// Classify maps a combined score to its maturity band. Bands are exhaustive
// over [0, max]; out-of-range scores clamp to the nearest band rather than
// producing an unclassified stakeholder.
func (p *Policy) Classify(score float64) models.MaturityLevel {
	for _, band := range p.MaturityBands {
		if score <= band.Max {
			return band.Level
		}
	}
	return p.MaturityBands[len(p.MaturityBands)-1].Level
}
