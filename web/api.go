// ABOUTME: JSON API mirroring the web pages under /api/v1
// ABOUTME: Contacts, deals, stages, activities, and dashboard metrics
package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/labstack/echo/v4"
)

type contactInput struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Company string   `json:"company"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
	Notes   string   `json:"notes"`
}

type stageInput struct {
	Stage string `json:"stage"`
}

type moveResponse struct {
	Notice board.Notice `json:"notice"`
	Deal   models.Deal  `json:"deal"`
}

func (s *Server) registerAPI(g *echo.Group) {
	g.GET("/contacts", s.apiListContacts)
	g.POST("/contacts", s.apiCreateContact)
	g.GET("/contacts/:id", s.apiGetContact)
	g.DELETE("/contacts/:id", s.apiDeleteContact)
	g.GET("/deals", s.apiListDeals)
	g.PATCH("/deals/:id/stage", s.apiMoveDeal)
	g.GET("/stages", s.apiListStages)
	g.GET("/activities", s.apiListActivities)
	g.GET("/dashboard", s.apiDashboard)
}

// apiError maps service errors onto HTTP statuses.
func apiError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (s *Server) apiListContacts(c echo.Context) error {
	contacts, err := s.svc.Contacts.GetAll(c.Request().Context())
	if err != nil {
		return apiError(err)
	}
	status := c.QueryParam("status")
	if status == "" {
		status = models.StatusAll
	}
	return c.JSON(http.StatusOK, services.FilterContacts(contacts, status, c.QueryParam("q")))
}

func (s *Server) apiCreateContact(c echo.Context) error {
	var in contactInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid contact body")
	}
	created, err := s.svc.Contacts.Create(c.Request().Context(), models.Contact{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Company: in.Company,
		Status:  in.Status,
		Tags:    in.Tags,
		Notes:   in.Notes,
	})
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) apiGetContact(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	detail, err := s.svc.LoadContactDetail(c.Request().Context(), id)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) apiDeleteContact(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Contacts.Delete(c.Request().Context(), id); err != nil {
		return apiError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) apiListDeals(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		deals []models.Deal
		err   error
	)
	if raw := c.QueryParam("contact_id"); raw != "" {
		contactID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid contact_id")
		}
		deals, err = s.svc.Deals.GetByContactID(ctx, contactID)
	} else {
		deals, err = s.svc.Deals.GetAll(ctx)
	}
	if err != nil {
		return apiError(err)
	}
	if stage := c.QueryParam("stage"); stage != "" {
		deals = filterStage(deals, stage)
	}
	return c.JSON(http.StatusOK, deals)
}

func filterStage(deals []models.Deal, stage string) []models.Deal {
	stage = strings.TrimSpace(stage)
	out := []models.Deal{}
	for _, d := range deals {
		if strings.EqualFold(d.Stage, stage) {
			out = append(out, d)
		}
	}
	return out
}

// apiMoveDeal runs the same drop as the board so a same-stage move is a no-op.
func (s *Server) apiMoveDeal(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in stageInput
	if err := c.Bind(&in); err != nil || in.Stage == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "stage is required")
	}

	data, err := s.svc.LoadPipeline(ctx)
	if err != nil {
		return apiError(err)
	}
	b := board.FromPipeline(s.svc.Deals, data)

	notice, err := b.Drop(ctx, id, in.Stage)
	switch {
	case errors.Is(err, board.ErrUnknownDeal):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrUnknownStage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, notice.Message)
	}

	deal, _ := b.Deal(id)
	return c.JSON(http.StatusOK, moveResponse{Notice: notice, Deal: deal})
}

func (s *Server) apiListStages(c echo.Context) error {
	stages, err := s.svc.Stages.GetAll(c.Request().Context())
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, stages)
}

func (s *Server) apiListActivities(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		activities []models.Activity
		err        error
	)
	switch {
	case c.QueryParam("contact_id") != "":
		id, perr := strconv.ParseInt(c.QueryParam("contact_id"), 10, 64)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid contact_id")
		}
		activities, err = s.svc.Activities.GetByContactID(ctx, id)
	case c.QueryParam("deal_id") != "":
		id, perr := strconv.ParseInt(c.QueryParam("deal_id"), 10, 64)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid deal_id")
		}
		activities, err = s.svc.Activities.GetByDealID(ctx, id)
	default:
		limit := services.DefaultRecentLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, perr := strconv.Atoi(raw)
			if perr != nil || n <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
			}
			limit = n
		}
		activities, err = s.svc.Activities.GetRecent(ctx, limit)
	}
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, activities)
}

func (s *Server) apiDashboard(c echo.Context) error {
	data, err := s.svc.LoadDashboard(c.Request().Context(), s.recent)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, viz.ComputeDashboard(data, s.metrics))
}
