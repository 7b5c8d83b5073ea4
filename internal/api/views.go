package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/ndiaye/readiness-dashboard/internal/assess"
	"github.com/ndiaye/readiness-dashboard/internal/match"
	"github.com/ndiaye/readiness-dashboard/internal/models"
	"github.com/ndiaye/readiness-dashboard/internal/upstream"
)

// section wraps one independently-fetched slice of a view. A transport
// failure marks the section unavailable (the client offers a retry); a 404
// marks it no_data (the client renders an explanatory placeholder). Either
// way the rest of the view still renders.
type section struct {
	Status string      `json:"status"` // ok, no_data, unavailable
	Data   interface{} `json:"data,omitempty"`
}

func sectionFor(c echo.Context, name string, err error, data interface{}) section {
	switch {
	case err == nil:
		return section{Status: "ok", Data: data}
	case upstream.IsNoData(err):
		return section{Status: "no_data"}
	default:
		c.Logger().Warnf("section %s unavailable: %v", name, err)
		return section{Status: "unavailable"}
	}
}

// handleDashboard is the admin aggregate view: headline summary, per-sector
// rollups, the overall maturity distribution, and survey coverage.
func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		participants []models.Stakeholder
		summary      *models.DashboardSummary
	)
	errs := upstream.Settle(ctx,
		func(ctx context.Context) error {
			var err error
			participants, err = s.Upstream.Participants(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			summary, err = s.Upstream.Dashboard(ctx)
			return err
		},
	)

	resp := map[string]interface{}{
		"summary": sectionFor(c, "summary", errs[1], summary),
	}

	if errs[0] != nil {
		resp["sectors"] = sectionFor(c, "sectors", errs[0], nil)
		resp["maturity_distribution"] = sectionFor(c, "maturity_distribution", errs[0], nil)
		return c.JSON(http.StatusOK, resp)
	}

	aggregates := assess.SectorAverages(participants, s.Policy)
	coverage := make(map[string]*float64, len(aggregates))
	for sector, agg := range aggregates {
		withData := 0
		for _, p := range participants {
			if p.Sector == sector && p.SurveyScore > 0 {
				withData++
			}
		}
		coverage[sector] = assess.Coverage(withData, agg.Count)
	}

	resp["sectors"] = section{Status: "ok", Data: sortedSectors(aggregates)}
	resp["maturity_distribution"] = section{Status: "ok", Data: assess.MaturityDistribution(participants, s.Policy)}
	resp["coverage"] = section{Status: "ok", Data: coverage}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleParticipantList(c echo.Context) error {
	participants, err := s.Upstream.Participants(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"participants": sectionFor(c, "participants", err, nil),
		})
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Name < participants[j].Name
	})
	return c.JSON(http.StatusOK, map[string]interface{}{
		"participants": section{Status: "ok", Data: participants},
	})
}

// handleParticipantDetail assembles one stakeholder's view from five
// independent resources. All fetches run in parallel and settle
// individually; sections that succeeded render even when others failed.
func (s *Server) handleParticipantDetail(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	var (
		participants  []models.Stakeholder
		plan          *models.ParticipantPlan
		pres          *models.ParticipantPresence
		justs         []models.Justification
		opportunities []models.OpportunityItem
		sentiments    []models.SentimentRecord
	)
	errs := upstream.Settle(ctx,
		func(ctx context.Context) error {
			var err error
			participants, err = s.Upstream.Participants(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			plan, err = s.Upstream.ParticipantPlan(ctx, name)
			return err
		},
		func(ctx context.Context) error {
			var err error
			pres, err = s.Upstream.ParticipantPresence(ctx, name)
			return err
		},
		func(ctx context.Context) error {
			var err error
			justs, err = s.Upstream.ParticipantJustifications(ctx, name)
			return err
		},
		func(ctx context.Context) error {
			var err error
			opportunities, err = s.Upstream.ParticipantOpportunities(ctx, name)
			return err
		},
		func(ctx context.Context) error {
			var err error
			sentiments, err = s.Upstream.SentimentRecords(ctx, "local", s.country)
			return err
		},
	)

	resp := map[string]interface{}{
		"plan":           sectionFor(c, "plan", errs[1], plan),
		"presence":       sectionFor(c, "presence", errs[2], pres),
		"justifications": sectionFor(c, "justifications", errs[3], justs),
		"opportunities":  sectionFor(c, "opportunities", errs[4], opportunities),
	}

	// Profile: fuzzy match against the roster; the stakeholder name in the
	// URL and the assessment dataset are not guaranteed byte-identical.
	if errs[0] != nil {
		resp["profile"] = sectionFor(c, "profile", errs[0], nil)
	} else {
		profile, score := match.Best(name, participants, func(p models.Stakeholder) string { return p.Name })
		if score == 0 {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown participant"})
		}
		resp["profile"] = section{Status: "ok", Data: profile}
	}

	// Sentiment is optional data: a stakeholder without reviews gets a
	// placeholder, not an error banner.
	if errs[5] != nil {
		resp["sentiment"] = sectionFor(c, "sentiment", errs[5], nil)
	} else {
		record, score := match.Best(name, sentiments, func(r models.SentimentRecord) string { return r.StakeholderName })
		if score == 0 {
			resp["sentiment"] = section{Status: "no_data"}
		} else {
			resp["sentiment"] = section{Status: "ok", Data: record}
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// handleSectorList renders the per-sector rollups. The upstream sector list
// is the authoritative name set: names without any assessed member render as
// empty rollups instead of disappearing. When the list is unavailable the
// view degrades to roster-derived sectors only.
func (s *Server) handleSectorList(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		participants []models.Stakeholder
		names        []string
	)
	errs := upstream.Settle(ctx,
		func(ctx context.Context) error {
			var err error
			participants, err = s.Upstream.Participants(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			names, err = s.Upstream.Sectors(ctx)
			return err
		},
	)

	if errs[0] != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"sectors": sectionFor(c, "sectors", errs[0], nil),
		})
	}

	aggregates := assess.SectorAverages(participants, s.Policy)
	if errs[1] == nil {
		for _, name := range names {
			if _, ok := aggregates[name]; !ok && name != "" {
				aggregates[name] = models.SectorAggregate{Sector: name}
			}
		}
	} else if !upstream.IsNoData(errs[1]) {
		c.Logger().Warnf("sector name list unavailable: %v", errs[1])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sectors": section{Status: "ok", Data: sortedSectors(aggregates)},
	})
}

// handleSectorDetail adds the gap analysis to one sector's rollup. The
// comparison universe defaults to all other sectors; ?universe=a,b,c
// restricts it to the named sectors.
func (s *Server) handleSectorDetail(c echo.Context) error {
	sector := c.Param("name")
	participants, err := s.Upstream.Participants(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"sector": sectionFor(c, "sector", err, nil),
		})
	}

	aggregates := assess.SectorAverages(participants, s.Policy)
	agg, ok := aggregates[sector]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown sector"})
	}

	var universe []string
	if v := c.QueryParam("universe"); v != "" {
		universe = splitCSV(v)
	}

	withData := 0
	var members []models.Stakeholder
	for _, p := range participants {
		if p.Sector == sector {
			members = append(members, p)
			if p.SurveyScore > 0 {
				withData++
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sector":   section{Status: "ok", Data: agg},
		"members":  section{Status: "ok", Data: members},
		"gaps":     section{Status: "ok", Data: assess.SectorGaps(sector, universe, participants, s.Policy)},
		"coverage": section{Status: "ok", Data: assess.Coverage(withData, agg.Count)},
	})
}

func (s *Server) handleRegionAnalysis(c echo.Context) error {
	participants, err := s.Upstream.Participants(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"regions": sectionFor(c, "regions", err, nil),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"regions": section{Status: "ok", Data: assess.RegionAverages(participants, s.Policy)},
	})
}

// handleITOPerception compares local visitor sentiment against international
// tour operator sentiment, theme by theme.
func (s *Server) handleITOPerception(c echo.Context) error {
	ctx := c.Request().Context()

	var local, ito []models.SentimentRecord
	errs := upstream.Settle(ctx,
		func(ctx context.Context) error {
			var err error
			local, err = s.Upstream.SentimentRecords(ctx, "local", s.country)
			return err
		},
		func(ctx context.Context) error {
			var err error
			ito, err = s.Upstream.SentimentRecords(ctx, "ito", s.country)
			return err
		},
	)

	if errs[0] != nil || errs[1] != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"local":      sectionFor(c, "local", errs[0], summaryOf(local)),
			"ito":        sectionFor(c, "ito", errs[1], summaryOf(ito)),
			"comparison": section{Status: "no_data"},
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"local":      section{Status: "ok", Data: summaryOf(local)},
		"ito":        section{Status: "ok", Data: summaryOf(ito)},
		"comparison": section{Status: "ok", Data: assess.CompareThemes(local, ito)},
	})
}

func (s *Server) handleReviewsSentiment(c echo.Context) error {
	records, err := s.Upstream.SentimentRecords(c.Request().Context(), "local", s.country)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"reviews": sectionFor(c, "reviews", err, nil),
		})
	}

	totalReviews := 0
	languages := make(map[string]int)
	years := make(map[string]int)
	for _, r := range records {
		totalReviews += r.TotalReviews
		for lang, n := range r.LanguageDistribution {
			languages[lang] += n
		}
		for year, n := range r.YearDistribution {
			years[year] += n
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": section{Status: "ok", Data: map[string]interface{}{
			"stakeholders":      len(records),
			"total_reviews":     totalReviews,
			"overall_sentiment": assess.OverallSentiment(records),
			"themes":            assess.AggregateThemes(records),
			"critical_areas":    assess.CriticalAreas(records),
			"languages":         languages,
			"years":             years,
		}},
	})
}

// handleMethodology exposes the policy constants so the methodology page
// always describes the thresholds actually in force.
func (s *Server) handleMethodology(c echo.Context) error {
	categories := make([]map[string]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		categories = append(categories, map[string]string{
			"key":   string(category),
			"label": category.Label(),
		})
	}
	themes := make([]map[string]string, 0, len(models.Themes))
	for _, theme := range models.Themes {
		themes = append(themes, map[string]string{
			"key":   string(theme),
			"label": theme.Label(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"maturity_bands": s.Policy.MaturityBands,
		"gap_thresholds": s.Policy.Gap,
		"score_weights":  s.Policy.Weights,
		"categories":     categories,
		"themes":         themes,
	})
}

func (s *Server) handleAuditPresence(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	name := c.Param("name")
	pres, err := s.Upstream.ParticipantPresence(c.Request().Context(), name)
	if err != nil {
		if upstream.IsNoData(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No presence data for participant"})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Presence data unavailable"})
	}

	audits := s.Auditor.Audit(c.Request().Context(), pres.Links)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"participant": name,
		"audits":      audits,
	})
}

func sortedSectors(aggregates map[string]models.SectorAggregate) []models.SectorAggregate {
	out := make([]models.SectorAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })
	return out
}

func summaryOf(records []models.SentimentRecord) map[string]interface{} {
	if records == nil {
		return nil
	}
	return map[string]interface{}{
		"stakeholders":      len(records),
		"overall_sentiment": assess.OverallSentiment(records),
		"themes":            assess.AggregateThemes(records),
	}
}
