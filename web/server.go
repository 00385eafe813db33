// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the dashboard, contacts, and pipeline pages plus a JSON API on echo
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/remote"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

type Options struct {
	Logger  *zap.Logger
	Metrics viz.MetricsConfig
	// RecentActivities is how many activities the dashboard shows.
	RecentActivities int
	// Store, when set, is also exposed as the hosted record API under /api/v1/records.
	Store recordstore.Store
	// RecordsToken is the bearer token the record API requires. Needed when Store is set.
	RecordsToken string
	// AllowedOrigins may call /api/v1 cross-origin. Writes from any other origin are refused.
	AllowedOrigins []string
}

type Server struct {
	svc       *services.Services
	templates *template.Template
	generator *viz.GraphGenerator
	log       *zap.Logger
	metrics   viz.MetricsConfig
	recent    int
	origins   []string
	echo      *echo.Echo
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"currency":  viz.FormatCurrency,
		"thousands": viz.FormatThousands,
		"lower":     strings.ToLower,
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"shortTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 3:04 PM")
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			return t.Format("Jan 2, 2006")
		},
		"initial": func(s string) string {
			if s == "" {
				return "?"
			}
			return strings.ToUpper(s[:1])
		},
		"join": strings.Join,
		"statusClass": func(status string) string {
			switch status {
			case models.StatusActive:
				return "bg-green-100 text-green-700"
			case models.StatusLead:
				return "bg-blue-100 text-blue-700"
			default:
				return "bg-gray-100 text-gray-600"
			}
		},
		"activityClass": func(kind string) string {
			switch kind {
			case models.ActivityEmail:
				return "bg-blue-100 text-blue-600"
			case models.ActivityCall:
				return "bg-green-100 text-green-600"
			case models.ActivityMeeting:
				return "bg-purple-100 text-purple-600"
			default:
				return "bg-gray-100 text-gray-600"
			}
		},
	}
}

func NewServer(svc *services.Services, opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(funcMap()).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		svc:       svc,
		templates: tmpl,
		generator: viz.NewGraphGenerator(svc),
		log:       opts.Logger,
		metrics:   opts.Metrics,
		recent:    opts.RecentActivities,
		origins:   opts.AllowedOrigins,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if len(s.metrics.StageNames) == 0 {
		s.metrics = viz.DefaultMetricsConfig()
	}
	if s.recent <= 0 {
		s.recent = 5
	}

	if opts.Store != nil && opts.RecordsToken == "" {
		return nil, fmt.Errorf("the record API needs a token (server.records_token)")
	}

	s.setupEcho(opts.Store, opts.RecordsToken)
	return s, nil
}

func (s *Server) setupEcho(store recordstore.Store, recordsToken string) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: s.templates}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.logRequests)
	e.Use(middleware.Recover())
	e.Use(s.checkOrigin)

	e.GET("/health", s.handleHealth)

	e.GET("/", s.handleDashboard)
	e.GET("/contacts", s.handleContacts)
	e.POST("/contacts", s.handleCreateContact)
	e.GET("/contacts/:id", s.handleContactDetail)
	e.GET("/contacts/:id/edit", s.handleEditContact)
	e.POST("/contacts/:id/delete", s.handleDeleteContact)
	e.GET("/pipeline", s.handlePipeline)
	e.POST("/pipeline/move", s.handleMoveDeal)
	e.GET("/pipeline/graph", s.handlePipelineGraph)

	api := e.Group("/api/v1")
	if len(s.origins) > 0 {
		api.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.origins}))
	}
	s.registerAPI(api)
	if store != nil {
		remote.RegisterRoutes(api, store, recordsToken)
	}

	s.echo = e
}

// logRequests logs one line per request with the request id.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		s.log.Info("http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", res.Status),
			zap.Int64("size", res.Size),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// checkOrigin refuses state-changing requests sent by a browser from another
// site. Requests without an Origin header (curl, the remote backend) pass.
func (s *Server) checkOrigin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}
		origin := req.Header.Get(echo.HeaderOrigin)
		if origin == "" || slices.Contains(s.origins, origin) {
			return next(c)
		}
		if u, err := url.Parse(origin); err == nil && u.Host == req.Host {
			return next(c)
		}
		s.log.Warn("refused cross-origin request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.String("origin", origin),
		)
		return echo.NewHTTPError(http.StatusForbidden, "cross-origin request refused")
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting web server", zap.String("addr", "http://"+addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
