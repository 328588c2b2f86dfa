// Package mcp provides an MCP (Model Context Protocol) server that exposes
// onboarding data, statistics, alerts and adverse media screening as MCP
// tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/pkg/models"
)

// Screener runs adverse media searches.
// This interface is defined locally to keep the server testable without a model.
type Screener interface {
	Screen(ctx context.Context, req screening.Request) (*models.ScreeningResult, error)
}

// Deps wires a Server. Everything except Repo may be nil; the matching
// tools then report that the feature is unavailable.
type Deps struct {
	Repo     core.Repository
	Screener Screener
	Metrics  observability.MetricsCalculator
	Alerts   observability.AlertEngine
}

// Server wraps onboarding services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	repo     core.Repository
	screener Screener
	metrics  observability.MetricsCalculator
	alerts   observability.AlertEngine
}

// NewServer creates a new MCP server over deps.
func NewServer(deps Deps, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		repo:     deps.Repo,
		screener: deps.Screener,
		metrics:  deps.Metrics,
		alerts:   deps.Alerts,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "onb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listLeadsInput struct {
	Query    string `json:"query,omitempty" jsonschema:"case-insensitive text matched against company, contact and email"`
	Stage    string `json:"stage,omitempty" jsonschema:"pipeline stage (prospecting, qualification, proposal, negotiation, converted, lost)"`
	Industry string `json:"industry,omitempty" jsonschema:"industry, e.g. Technology"`
	Country  string `json:"country,omitempty" jsonschema:"country name"`
	MinScore *int   `json:"min_score,omitempty" jsonschema:"minimum AI score, inclusive"`
	MaxScore *int   `json:"max_score,omitempty" jsonschema:"maximum AI score, inclusive"`
}

type leadOutput struct {
	ID            string `json:"id"`
	CompanyName   string `json:"company_name"`
	Industry      string `json:"industry"`
	Country       string `json:"country"`
	ContactName   string `json:"contact_name"`
	ContactEmail  string `json:"contact_email"`
	Status        string `json:"status"`
	PipelineStage string `json:"pipeline_stage"`
	AIScore       int    `json:"ai_score"`
	AssignedTo    string `json:"assigned_to,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

type listLeadsOutput struct {
	Leads []leadOutput `json:"leads"`
	Count int          `json:"count"`
}

type emptyInput struct{}

type leadStatisticsOutput struct {
	TotalLeads        int            `json:"total_leads"`
	ActiveLeads       int            `json:"active_leads"`
	ConvertedLeads    int            `json:"converted_leads"`
	LostLeads         int            `json:"lost_leads"`
	ConversionRate    float64        `json:"conversion_rate"`
	StageDistribution map[string]int `json:"stage_distribution"`
	AverageScore      int            `json:"average_score"`
}

type documentStatisticsOutput struct {
	TotalDocuments int     `json:"total_documents"`
	Pending        int     `json:"pending"`
	Uploaded       int     `json:"uploaded"`
	UnderReview    int     `json:"under_review"`
	Approved       int     `json:"approved"`
	Rejected       int     `json:"rejected"`
	Expired        int     `json:"expired"`
	ApprovalRate   float64 `json:"approval_rate"`
}

type reviewDocumentInput struct {
	DocumentID   string `json:"document_id" jsonschema:"required,the document identifier"`
	Status       string `json:"status" jsonschema:"required,the new status (under_review, approved, rejected, expired)"`
	ReviewerID   string `json:"reviewer_id,omitempty" jsonschema:"employee id of the reviewer"`
	ReviewerName string `json:"reviewer_name,omitempty" jsonschema:"display name of the reviewer"`
	Comment      string `json:"comment,omitempty" jsonschema:"review comment to attach"`
}

type reviewDocumentOutput struct {
	Message string `json:"message"`
}

type screenInput struct {
	EntityName string `json:"entity_name" jsonschema:"required,the company or person to screen"`
	DateRange  int    `json:"date_range,omitempty" jsonschema:"look-back window in days. Defaults to 30."`
}

type screenOutput struct {
	EntityName    string           `json:"entity_name"`
	DateRange     int              `json:"date_range"`
	SearchDate    string           `json:"search_date"`
	FindingsCount int              `json:"findings_count"`
	Findings      []models.Finding `json:"findings"`
	ParseFailed   bool             `json:"parse_failed,omitempty"`
	Error         string           `json:"error,omitempty"`
	RawResponse   string           `json:"raw_response,omitempty"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	DocumentsUploaded int            `json:"documents_uploaded"`
	DocumentsByStatus map[string]int `json:"documents_by_status"`
	DocumentsApproved int            `json:"documents_approved"`
	DocumentsRejected int            `json:"documents_rejected"`
	MessagesSent      int            `json:"messages_sent"`
	ExternalMessages  int            `json:"external_messages"`
	RecordsCreated    map[string]int `json:"records_created"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	EntityID    string `json:"entity_id"`
	DocumentID  string `json:"document_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_leads",
		Description: "List sales leads. Optional filters are combined with AND; query does a case-insensitive text search.",
	}, s.handleListLeads)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "lead_statistics",
		Description: "Get pipeline statistics: totals, conversion rate, stage distribution and average AI score.",
	}, s.handleLeadStatistics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "document_statistics",
		Description: "Get compliance document counts by review status and the approval rate.",
	}, s.handleDocumentStatistics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "review_document",
		Description: "Move a compliance document through review. Valid moves: uploaded to under_review, under_review to approved or rejected, approved to expired.",
	}, s.handleReviewDocument)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "screen_adverse_media",
		Description: "Search recent news for adverse media about a company or person and return categorized findings.",
	}, s.handleScreen)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get activity metrics from the event journal: uploads, review decisions, messages and created records.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active compliance alerts (long document reviews, overdue risk reviews, missing documents).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListLeads(ctx context.Context, _ *gomcp.CallToolRequest, input listLeadsInput) (*gomcp.CallToolResult, listLeadsOutput, error) {
	filter := models.LeadFilter{
		Stage:    models.PipelineStage(input.Stage),
		Industry: models.Industry(input.Industry),
		Country:  input.Country,
		MinScore: input.MinScore,
		MaxScore: input.MaxScore,
	}

	var leads []models.Lead
	var err error
	if input.Query != "" {
		var found []models.Lead
		found, err = s.repo.SearchLeads(ctx, input.Query)
		for _, l := range found {
			if core.MatchesLeadFilter(l, filter) {
				leads = append(leads, l)
			}
		}
	} else {
		leads, err = s.repo.FilterLeads(ctx, filter)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("listing leads: %s", err)), listLeadsOutput{}, nil
	}

	out := listLeadsOutput{
		Leads: make([]leadOutput, len(leads)),
		Count: len(leads),
	}
	for i, l := range leads {
		out.Leads[i] = leadToOutput(l)
	}
	return nil, out, nil
}

func (s *Server) handleLeadStatistics(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, leadStatisticsOutput, error) {
	stats, err := s.repo.GetLeadStatistics(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("computing lead statistics: %s", err)), leadStatisticsOutput{}, nil
	}
	out := leadStatisticsOutput{
		TotalLeads:        stats.TotalLeads,
		ActiveLeads:       stats.ActiveLeads,
		ConvertedLeads:    stats.ConvertedLeads,
		LostLeads:         stats.LostLeads,
		ConversionRate:    stats.ConversionRate,
		StageDistribution: make(map[string]int, len(stats.StageDistribution)),
		AverageScore:      stats.AverageScore,
	}
	for stage, n := range stats.StageDistribution {
		out.StageDistribution[string(stage)] = n
	}
	return nil, out, nil
}

func (s *Server) handleDocumentStatistics(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, documentStatisticsOutput, error) {
	stats, err := s.repo.GetDocumentStatistics(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("computing document statistics: %s", err)), documentStatisticsOutput{}, nil
	}
	return nil, documentStatisticsOutput{
		TotalDocuments: stats.TotalDocuments,
		Pending:        stats.Pending,
		Uploaded:       stats.Uploaded,
		UnderReview:    stats.UnderReview,
		Approved:       stats.Approved,
		Rejected:       stats.Rejected,
		Expired:        stats.Expired,
		ApprovalRate:   stats.ApprovalRate,
	}, nil
}

func (s *Server) handleReviewDocument(ctx context.Context, _ *gomcp.CallToolRequest, input reviewDocumentInput) (*gomcp.CallToolResult, reviewDocumentOutput, error) {
	if input.DocumentID == "" {
		return errorResult("document_id is required"), reviewDocumentOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), reviewDocumentOutput{}, nil
	}

	review := models.ReviewInput{ReviewerID: input.ReviewerID, ReviewerName: input.ReviewerName}
	if input.Comment != "" {
		review.Comments = []string{input.Comment}
	}
	doc, err := s.repo.UpdateDocumentStatus(ctx, input.DocumentID, models.DocumentStatus(input.Status), review)
	if err != nil {
		return errorResult(fmt.Sprintf("reviewing document %s: %s", input.DocumentID, err)), reviewDocumentOutput{}, nil
	}
	return nil, reviewDocumentOutput{
		Message: fmt.Sprintf("document %s status updated to %s", doc.ID, doc.Status),
	}, nil
}

func (s *Server) handleScreen(ctx context.Context, _ *gomcp.CallToolRequest, input screenInput) (*gomcp.CallToolResult, screenOutput, error) {
	if s.screener == nil {
		return errorResult("adverse media screening not available (no API key configured)"), screenOutput{}, nil
	}
	result, err := s.screener.Screen(ctx, screening.Request{EntityName: input.EntityName, DateRangeDays: input.DateRange})
	if err != nil {
		return errorResult(fmt.Sprintf("screening %q: %s", input.EntityName, err)), screenOutput{}, nil
	}
	return nil, screenOutput{
		EntityName:    result.EntityName,
		DateRange:     result.DateRange,
		SearchDate:    result.SearchDate.Format(time.RFC3339),
		FindingsCount: result.FindingsCount,
		Findings:      result.Findings,
		ParseFailed:   result.ParseFailed,
		Error:         result.Error,
		RawResponse:   result.RawResponse,
	}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metrics == nil {
		return errorResult("metrics calculator not available (event journal may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := ParseSince(sinceStr, time.Now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metrics.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		DocumentsUploaded: metrics.DocumentsUploaded,
		DocumentsByStatus: metrics.DocumentsByStatus,
		DocumentsApproved: metrics.DocumentsApproved,
		DocumentsRejected: metrics.DocumentsRejected,
		MessagesSent:      metrics.MessagesSent,
		ExternalMessages:  metrics.ExternalMessages,
		RecordsCreated:    metrics.RecordsCreated,
		EventCount:        metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alerts == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	alerts, err := s.alerts.Evaluate(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			EntityID:    a.EntityID,
			DocumentID:  a.DocumentID,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func leadToOutput(l models.Lead) leadOutput {
	return leadOutput{
		ID:            l.ID,
		CompanyName:   l.CompanyName,
		Industry:      string(l.Industry),
		Country:       l.Country,
		ContactName:   l.ContactName,
		ContactEmail:  l.ContactEmail,
		Status:        string(l.Status),
		PipelineStage: string(l.PipelineStage),
		AIScore:       l.AIScore,
		AssignedTo:    l.AssignedTo,
		UpdatedAt:     l.UpdatedAt.Format(time.RFC3339),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		DocumentsByStatus: make(map[string]int),
		RecordsCreated:    make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	now = now.UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
