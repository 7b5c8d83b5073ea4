package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ndiaye/readiness-dashboard/internal/db"
)

// SubmissionRequest is the payload contract of the public submission
// boundary. The dashboard's modal forms post this shape for both feedback
// and new-participant requests.
type SubmissionRequest struct {
	Type        string `json:"type"`
	Participant string `json:"participant,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Message     string `json:"message"`
	Contact     string `json:"contact,omitempty"`
}

func (s *Server) handleSubmitFeedback(c echo.Context) error {
	return s.handleSubmission(c, "feedback")
}

// handleSubmitParticipant records a request to add a new participant and
// invalidates the cached roster so the next admin read reflects any
// server-side change.
func (s *Server) handleSubmitParticipant(c echo.Context) error {
	err := s.handleSubmission(c, "participant")
	if err == nil {
		s.Upstream.Invalidate("participants")
	}
	return err
}

func (s *Server) handleSubmission(c echo.Context, kind string) error {
	if !s.submissionLimit.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many submissions, try again shortly"})
	}

	var req SubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Message is required"})
	}

	sub := db.Submission{
		Kind:    kind,
		Type:    strings.TrimSpace(s.sanitizer.Sanitize(req.Type)),
		Message: message,
	}
	if v := strings.TrimSpace(s.sanitizer.Sanitize(req.Participant)); v != "" {
		sub.Participant = &v
	}
	if v := strings.TrimSpace(s.sanitizer.Sanitize(req.Sector)); v != "" {
		sub.Sector = &v
	}
	if v := strings.TrimSpace(s.sanitizer.Sanitize(req.Contact)); v != "" {
		sub.Contact = &v
	}

	id, err := s.Store.InsertSubmission(c.Request().Context(), sub)
	if err != nil {
		c.Logger().Errorf("Failed to store %s submission: %v", kind, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store submission"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListSubmissions(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	subs, err := s.Store.ListSubmissions(c.Request().Context(), c.QueryParam("kind"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if subs == nil {
		subs = []db.Submission{}
	}
	return c.JSON(http.StatusOK, subs)
}
