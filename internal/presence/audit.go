// Package presence performs the lightweight technical check behind the
// participant detail view's audit section: does each recorded digital
// touchpoint still resolve, and what does it present itself as.
package presence

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ndiaye/readiness-dashboard/internal/models"
)

// LinkAudit is the outcome of checking a single presence link.
type LinkAudit struct {
	URL         string `json:"url"`
	Platform    string `json:"platform"`
	Reachable   bool   `json:"reachable"`
	StatusCode  int    `json:"status_code,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type Auditor struct {
	client *http.Client
}

func NewAuditor() *Auditor {
	return &Auditor{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Audit checks each link in turn. Unreachable links are recorded, not
// errors: a dead website is a finding, and one bad link must not sink the
// rest of the audit.
func (a *Auditor) Audit(ctx context.Context, links []models.PresenceLink) []LinkAudit {
	audits := make([]LinkAudit, 0, len(links))
	for _, link := range links {
		audits = append(audits, a.auditOne(ctx, link))
	}
	return audits
}

func (a *Auditor) auditOne(ctx context.Context, link models.PresenceLink) LinkAudit {
	audit := LinkAudit{URL: link.URL, Platform: link.Platform}

	req, err := http.NewRequestWithContext(ctx, "GET", link.URL, nil)
	if err != nil {
		return audit
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return audit
	}
	defer resp.Body.Close()

	audit.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return audit
	}
	audit.Reachable = true

	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return audit
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return audit
	}
	audit.Title = cleanText(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		audit.Description = cleanText(desc)
	}
	return audit
}

// cleanText collapses whitespace and trims the string.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
