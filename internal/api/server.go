package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/ndiaye/readiness-dashboard/internal/assess"
	"github.com/ndiaye/readiness-dashboard/internal/auth"
	"github.com/ndiaye/readiness-dashboard/internal/db"
	"github.com/ndiaye/readiness-dashboard/internal/guard"
	"github.com/ndiaye/readiness-dashboard/internal/presence"
	"github.com/ndiaye/readiness-dashboard/internal/upstream"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Upstream    *upstream.Client
	Auditor     *presence.Auditor
	Policy      *assess.Policy
	Echo        *echo.Echo
	DB          *pgxpool.Pool

	country         string
	sanitizer       *bluemonday.Policy
	submissionLimit *submissionLimiter
}

func NewServer(pool *pgxpool.Pool) (*Server, error) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	registry, err := upstream.LoadRegistry("")
	if err != nil {
		return nil, err
	}
	policy, err := assess.LoadPolicy("")
	if err != nil {
		return nil, err
	}

	country := strings.TrimSpace(os.Getenv("DASHBOARD_COUNTRY"))
	if country == "" {
		country = "gm"
	}

	s := &Server{
		DB:          pool,
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Upstream:    upstream.NewClient(registry),
		Auditor:     presence.NewAuditor(),
		Policy:      policy,
		Echo:        e,
		country:     country,
		// Submission text is rendered back to admins; strip all markup.
		sanitizer:       bluemonday.StrictPolicy(),
		submissionLimit: newSubmissionLimiter(rate.Limit(1), 5),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	// View routes. Identify attaches the session, the guard applies the
	// access rules (redirects) before any view fetch runs.
	views := s.Echo.Group("", auth.Identify(s.AuthService), guard.Middleware)
	views.GET("/", s.handleDashboard)
	views.GET("/dashboard", s.handleDashboard)
	views.GET("/login", s.handleLoginPage)
	views.GET("/participants", s.handleParticipantList)
	views.GET("/participants/:name", s.handleParticipantDetail)
	views.GET("/sectors", s.handleSectorList)
	views.GET("/sectors/:name", s.handleSectorDetail)
	views.GET("/regions", s.handleRegionAnalysis)
	views.GET("/ito-perception", s.handleITOPerception)
	views.GET("/reviews", s.handleReviewsSentiment)
	views.GET("/methodology", s.handleMethodology)

	// Auth Routes
	api := s.Echo.Group("/api/v1", auth.Identify(s.AuthService))
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)
	api.GET("/submissions", s.handleListSubmissions)
	api.POST("/participants/:name/audit", s.handleAuditPresence)

	// Public submission boundary
	s.Echo.POST("/api/feedback", s.handleSubmitFeedback)
	s.Echo.POST("/api/participants", s.handleSubmitParticipant)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// handleLoginPage is the target of guard redirects; the SPA renders the form
// and posts to /api/v1/auth/login. The preserved next parameter is echoed so
// post-login navigation returns to the originally requested route.
func (s *Server) handleLoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"view": "login",
		"next": c.QueryParam("next"),
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	session, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUnknownUser || err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	home := "/"
	if session.Role == auth.RoleParticipant {
		home = guard.OwnDetailPath(session.Organization)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": session,
		"home":    home,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if session := auth.SessionFromContext(c); session != nil {
		s.AuthService.Logout(session.ID)
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}

// requireAdmin guards API endpoints that have no page route for the guard
// middleware to cover.
func requireAdmin(c echo.Context) (*auth.Session, error) {
	session := auth.SessionFromContext(c)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	if session.Role != auth.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Admin access required")
	}
	return session, nil
}

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
