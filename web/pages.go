// ABOUTME: HTML page handlers for dashboard, contacts, and pipeline
// ABOUTME: Loads page data in parallel and renders the layout or an htmx partial
package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var stageDotColors = []string{"bg-blue-500", "bg-purple-500", "bg-amber-500", "bg-green-500"}

type stageCard struct {
	viz.StageTotal
	Dot string
}

type pipelineView struct {
	Board      *board.Board
	Columns    []board.Column
	TotalValue float64
	DealCount  int
	Now        time.Time
	Notice     board.Notice
}

func (s *Server) render(c echo.Context, status int, data map[string]interface{}) error {
	if _, ok := data["Notice"]; !ok {
		data["Notice"] = noticeFrom(c)
	}
	return c.Render(status, "layout.html", data)
}

// renderError shows the generic error view with a link back to retry.
func (s *Server) renderError(c echo.Context, err error, retry string) error {
	s.log.Error("page load failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	return s.render(c, http.StatusInternalServerError, map[string]interface{}{
		"Title":           "Error",
		"ContentTemplate": "error-content",
		"Message":         "We encountered an error while loading your data. Please try again.",
		"Retry":           retry,
	})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

func (s *Server) handleDashboard(c echo.Context) error {
	data, err := s.svc.LoadDashboard(c.Request().Context(), s.recent)
	if err != nil {
		return s.renderError(c, err, "/")
	}
	m := viz.ComputeDashboard(data, s.metrics)

	cards := make([]stageCard, len(m.StageTotals))
	for i, st := range m.StageTotals {
		cards[i] = stageCard{StageTotal: st, Dot: stageDotColors[i%len(stageDotColors)]}
	}

	return s.render(c, http.StatusOK, map[string]interface{}{
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
		"Metrics":         m,
		"StageCards":      cards,
	})
}

func (s *Server) handleContacts(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = models.StatusAll
	}
	query := c.QueryParam("q")

	all, err := s.svc.Contacts.GetAll(c.Request().Context())
	if err != nil {
		return s.renderError(c, err, "/contacts")
	}

	return s.render(c, http.StatusOK, map[string]interface{}{
		"Title":           "Contacts",
		"ContentTemplate": "contacts-content",
		"Contacts":        services.FilterContacts(all, status, query),
		"Total":           len(all),
		"Status":          status,
		"Query":           query,
		"Filtered":        query != "" || status != models.StatusAll,
		"Statuses":        []string{models.StatusActive, models.StatusInactive, models.StatusLead},
	})
}

func contactFromForm(c echo.Context) models.Contact {
	return models.Contact{
		Name:    c.FormValue("name"),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Phone:   strings.TrimSpace(c.FormValue("phone")),
		Company: strings.TrimSpace(c.FormValue("company")),
		Status:  c.FormValue("status"),
		Tags:    recordstore.SplitTags(c.FormValue("tags")),
		Notes:   c.FormValue("notes"),
	}
}

func (s *Server) handleCreateContact(c echo.Context) error {
	if _, err := s.svc.Contacts.Create(c.Request().Context(), contactFromForm(c)); err != nil {
		s.log.Warn("create contact failed", zap.Error(err))
		return redirectWithNotice(c, "/contacts", board.Error(board.MsgContactAddFailed))
	}
	return redirectWithNotice(c, "/contacts", board.Success(board.MsgContactAdded))
}

func (s *Server) handleContactDetail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	detail, err := s.svc.LoadContactDetail(c.Request().Context(), id)
	if errors.Is(err, services.ErrContactNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
	}
	if err != nil {
		s.log.Error("contact detail failed", zap.Int64("contact_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load contact")
	}

	return c.Render(http.StatusOK, "contact-detail", map[string]interface{}{
		"Detail": detail,
		"Now":    s.svc.Now(),
	})
}

func (s *Server) handleEditContact(c echo.Context) error {
	return redirectWithNotice(c, "/contacts", board.Info(board.MsgEditComingSoon))
}

func (s *Server) handleDeleteContact(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Contacts.Delete(c.Request().Context(), id); err != nil {
		s.log.Warn("delete contact failed", zap.Int64("contact_id", id), zap.Error(err))
		return redirectWithNotice(c, "/contacts", board.Error(board.MsgContactDelFailed))
	}
	return redirectWithNotice(c, "/contacts", board.Success(board.MsgContactDeleted))
}

func (s *Server) pipelineView(b *board.Board, deals []models.Deal, n board.Notice) pipelineView {
	v := pipelineView{
		Board:     b,
		Columns:   b.Columns(),
		DealCount: len(deals),
		Now:       s.svc.Now(),
		Notice:    n,
	}
	for _, d := range deals {
		v.TotalValue += d.Value
	}
	return v
}

func (s *Server) handlePipeline(c echo.Context) error {
	data, err := s.svc.LoadPipeline(c.Request().Context())
	if err != nil {
		return s.renderError(c, err, "/pipeline")
	}
	b := board.FromPipeline(s.svc.Deals, data)

	return s.render(c, http.StatusOK, map[string]interface{}{
		"Title":           "Pipeline",
		"ContentTemplate": "pipeline-content",
		"Pipeline":        s.pipelineView(b, data.Deals, board.Notice{}),
		"EmptyNotice":     board.MsgAddDealComingSoon,
	})
}

// handleMoveDeal is the drop target. htmx requests get the re-rendered board,
// plain form posts are redirected back to the pipeline.
func (s *Server) handleMoveDeal(c echo.Context) error {
	ctx := c.Request().Context()
	dealID, err := strconv.ParseInt(c.FormValue("deal_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid deal ID")
	}
	stage := c.FormValue("stage")

	data, err := s.svc.LoadPipeline(ctx)
	if err != nil {
		if isHTMX(c) {
			return echo.NewHTTPError(http.StatusInternalServerError, board.MsgMoveFailed)
		}
		return redirectWithNotice(c, "/pipeline", board.Error(board.MsgMoveFailed))
	}
	b := board.FromPipeline(s.svc.Deals, data)

	notice, err := b.Drop(ctx, dealID, stage)
	if err != nil {
		s.log.Warn("move deal failed", zap.Int64("deal_id", dealID), zap.String("stage", stage), zap.Error(err))
		if notice.IsZero() {
			notice = board.Error(board.MsgMoveFailed)
		}
	}

	if isHTMX(c) {
		return c.Render(http.StatusOK, "board", s.pipelineView(b, data.Deals, notice))
	}
	return redirectWithNotice(c, "/pipeline", notice)
}

func (s *Server) handlePipelineGraph(c echo.Context) error {
	name := c.QueryParam("format")
	if name == "" {
		name = "svg"
	}
	format, err := viz.ParseFormat(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	out, err := s.generator.GeneratePipelineGraph(c.Request().Context(), format)
	if err != nil {
		s.log.Error("pipeline graph failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render graph")
	}
	if name == "svg" {
		return c.Blob(http.StatusOK, "image/svg+xml", []byte(out))
	}
	return c.Blob(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(out))
}
