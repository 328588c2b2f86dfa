package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/pkg/models"
)

// POST /api/adverse-media
func (s *Server) screenAdverseMedia(c echo.Context) error {
	if s.screener == nil {
		return unavailable(c, "adverse media screening")
	}
	var req screening.Request
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.screener.Screen(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, screening.ErrEntityNameRequired) {
			return badRequest(c, "Entity name is required")
		}
		var upstream *screening.UpstreamError
		if errors.As(err, &upstream) {
			status := upstream.StatusCode
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			return c.JSON(status, map[string]string{
				"error":   "Failed to fetch adverse media data from provider",
				"details": upstream.Details,
			})
		}
		s.logger.Error().Err(err).Msg("adverse media screening failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, result)
}

// GET /api/leads?q=&stage=&industry=&country=&minScore=&maxScore=
func (s *Server) listLeads(c echo.Context) error {
	filter := models.LeadFilter{
		Stage:    models.PipelineStage(c.QueryParam("stage")),
		Industry: models.Industry(c.QueryParam("industry")),
		Country:  c.QueryParam("country"),
	}
	for param, dst := range map[string]**int{"minScore": &filter.MinScore, "maxScore": &filter.MaxScore} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, param+" must be an integer")
		}
		*dst = &v
	}

	ctx := c.Request().Context()
	q := c.QueryParam("q")
	if q == "" {
		leads, err := s.repo.FilterLeads(ctx, filter)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, leads)
	}

	found, err := s.repo.SearchLeads(ctx, q)
	if err != nil {
		return s.fail(c, err)
	}
	leads := make([]models.Lead, 0, len(found))
	for _, l := range found {
		if core.MatchesLeadFilter(l, filter) {
			leads = append(leads, l)
		}
	}
	return c.JSON(http.StatusOK, leads)
}

// GET /api/leads/:id
func (s *Server) getLead(c echo.Context) error {
	lead, err := s.repo.GetLeadByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}

// POST /api/leads
func (s *Server) createLead(c echo.Context) error {
	var in models.LeadInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid lead")
	}
	lead, err := s.repo.CreateLead(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, lead)
}

// PATCH /api/leads/:id
func (s *Server) updateLead(c echo.Context) error {
	var patch models.LeadPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid lead patch")
	}
	lead, err := s.repo.UpdateLead(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}

// GET /api/clients?stage=
func (s *Server) listClients(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		clients []models.Client
		err     error
	)
	if stage := c.QueryParam("stage"); stage != "" {
		clients, err = s.repo.GetClientsByLifecycleStage(ctx, models.LifecycleStage(stage))
	} else {
		clients, err = s.repo.GetClients(ctx)
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, clients)
}

type lifecycleRequest struct {
	Stage models.LifecycleStage `json:"stage"`
	Notes string                `json:"notes"`
}

// POST /api/clients/:id/lifecycle
func (s *Server) transitionClient(c echo.Context) error {
	var req lifecycleRequest
	if err := c.Bind(&req); err != nil || req.Stage == "" {
		return badRequest(c, "stage is required")
	}
	client, err := s.repo.TransitionClientLifecycle(c.Request().Context(), c.Param("id"), req.Stage, req.Notes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

// GET /api/documents?clientId=&status=
func (s *Server) listDocuments(c echo.Context) error {
	ctx := c.Request().Context()
	clientID := c.QueryParam("clientId")
	status := models.DocumentStatus(c.QueryParam("status"))

	var (
		docs []models.Document
		err  error
	)
	if clientID != "" {
		docs, err = s.repo.GetDocumentsByClientID(ctx, clientID)
	} else {
		docs, err = s.repo.GetDocuments(ctx)
	}
	if err != nil {
		return s.fail(c, err)
	}
	if status != "" {
		kept := docs[:0]
		for _, d := range docs {
			if d.Status == status {
				kept = append(kept, d)
			}
		}
		docs = kept
	}
	return c.JSON(http.StatusOK, docs)
}

// POST /api/documents
func (s *Server) uploadDocument(c echo.Context) error {
	var in models.DocumentInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid document")
	}
	doc, err := s.repo.UploadDocument(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

type reviewRequest struct {
	Status models.DocumentStatus `json:"status"`
	models.ReviewInput
}

// POST /api/documents/:id/status
func (s *Server) updateDocumentStatus(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return badRequest(c, "status is required")
	}
	doc, err := s.repo.UpdateDocumentStatus(c.Request().Context(), c.Param("id"), req.Status, req.ReviewInput)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// GET /api/conversations?userId=
func (s *Server) listConversations(c echo.Context) error {
	convs, err := s.repo.GetConversations(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, convs)
}

// GET /api/conversations/:id/messages
func (s *Server) listMessages(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.repo.GetConversationByID(ctx, c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	msgs, err := s.repo.GetMessagesByConversationID(ctx, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// POST /api/messages
func (s *Server) sendMessage(c echo.Context) error {
	var in models.MessageInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid message")
	}
	msg, err := s.repo.SendMessage(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// GET /api/stats/leads
func (s *Server) leadStatistics(c echo.Context) error {
	stats, err := s.repo.GetLeadStatistics(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GET /api/stats/documents
func (s *Server) documentStatistics(c echo.Context) error {
	stats, err := s.repo.GetDocumentStatistics(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GET /api/events?type=
func (s *Server) listEvents(c echo.Context) error {
	if s.bus == nil {
		return unavailable(c, "event bus")
	}
	var types []realtime.EventType
	if t := c.QueryParam("type"); t != "" {
		types = append(types, realtime.EventType(t))
	}
	return c.JSON(http.StatusOK, s.bus.History(types...))
}

// GET /api/alerts
func (s *Server) listAlerts(c echo.Context) error {
	if s.alerts == nil {
		return unavailable(c, "alerting")
	}
	alerts, err := s.alerts.Evaluate(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, alerts)
}
