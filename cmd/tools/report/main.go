// Command report prints the sector rollups and maturity distribution as a
// terminal table, straight from the upstream assessment API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ndiaye/readiness-dashboard/internal/assess"
	"github.com/ndiaye/readiness-dashboard/internal/models"
	"github.com/ndiaye/readiness-dashboard/internal/upstream"
)

func main() {
	ctx := context.Background()

	registry, err := upstream.LoadRegistry(os.Getenv("ENDPOINTS_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	policy, err := assess.LoadPolicy(os.Getenv("POLICY_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	client := upstream.NewClient(registry)
	participants, err := client.Participants(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch participants: %v", err)
	}

	aggregates := assess.SectorAverages(participants, policy)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Sector", "Count", "External", "Survey", "Combined", "Top Band"})

	for _, sector := range sortedKeys(aggregates) {
		agg := aggregates[sector]
		t.AppendRow(table.Row{
			agg.Sector,
			agg.Count,
			fmt.Sprintf("%.1f", agg.AvgExternal),
			fmt.Sprintf("%.1f", agg.AvgSurvey),
			fmt.Sprintf("%.1f", agg.AvgCombined),
			topBand(agg.MaturityDistribution).Label(),
		})
	}
	t.Render()

	dist := assess.MaturityDistribution(participants, policy)
	d := table.NewWriter()
	d.SetOutputMirror(os.Stdout)
	d.AppendHeader(table.Row{"Maturity Band", "Stakeholders"})
	for _, level := range models.MaturityLevels {
		d.AppendRow(table.Row{level.Label(), dist[level]})
	}
	d.Render()
}

func sortedKeys(aggregates map[string]models.SectorAggregate) []string {
	keys := make([]string, 0, len(aggregates))
	for key := range aggregates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func topBand(dist map[models.MaturityLevel]int) models.MaturityLevel {
	best := models.MaturityAbsent
	bestCount := -1
	for _, level := range models.MaturityLevels {
		if dist[level] > bestCount {
			best = level
			bestCount = dist[level]
		}
	}
	return best
}
