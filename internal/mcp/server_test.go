package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/pkg/models"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
	err    error
}

func (f *fakeAlertEngine) Evaluate(context.Context) ([]observability.Alert, error) {
	return f.alerts, f.err
}

type fakeScreener struct {
	result *models.ScreeningResult
	err    error
}

func (f *fakeScreener) Screen(_ context.Context, req screening.Request) (*models.ScreeningResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.EntityName = req.EntityName
	return &out, nil
}

// --- Test helpers ---

func newRepo() core.Repository {
	return core.NewRepository(core.RepositoryDeps{
		Latency: latency.None(),
		Clock:   func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) },
		Logger:  zerolog.Nop(),
	})
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeOutput reads a tool's structured output, falling back to its text.
func decodeOutput[T any](t *testing.T, result *gomcp.CallToolResult) T {
	t.Helper()
	var out T
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if err := json.Unmarshal([]byte(extractText(result)), &out); err == nil {
		return out
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshalling structured content: %v", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshalling tool output: %v (text was: %s)", err, extractText(result))
	}
	return out
}

// --- Lead tests ---

func TestListLeadsAll(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")

	out := decodeOutput[listLeadsOutput](t, callTool(t, srv, "list_leads", map[string]any{}))

	if out.Count != 8 || len(out.Leads) != 8 {
		t.Errorf("expected 8 leads, got count=%d len=%d", out.Count, len(out.Leads))
	}
}

func TestListLeadsWithFilter(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")

	out := decodeOutput[listLeadsOutput](t, callTool(t, srv, "list_leads", map[string]any{
		"industry":  "Technology",
		"min_score": 80,
	}))

	if out.Count != 2 {
		t.Fatalf("expected 2 leads, got %d", out.Count)
	}
	if out.Leads[0].ID != "lead-01" || out.Leads[1].ID != "lead-05" {
		t.Errorf("unexpected leads %s, %s", out.Leads[0].ID, out.Leads[1].ID)
	}
}

func TestListLeadsWithQuery(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")

	out := decodeOutput[listLeadsOutput](t, callTool(t, srv, "list_leads", map[string]any{"query": "PRIYA"}))

	if out.Count != 1 || out.Leads[0].ID != "lead-03" {
		t.Errorf("expected lead-03, got %+v", out.Leads)
	}
}

func TestLeadStatistics(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")

	out := decodeOutput[leadStatisticsOutput](t, callTool(t, srv, "lead_statistics", map[string]any{}))

	if out.TotalLeads != 8 {
		t.Errorf("expected 8 total leads, got %d", out.TotalLeads)
	}
	sum := 0
	for _, n := range out.StageDistribution {
		sum += n
	}
	if sum != out.TotalLeads {
		t.Errorf("stage distribution sums to %d, want %d", sum, out.TotalLeads)
	}
}

// --- Document tests ---

func TestDocumentStatistics(t *testing.T) {
	repo := newRepo()
	srv := NewServer(Deps{Repo: repo}, "test")

	want, err := repo.GetDocumentStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetDocumentStatistics: %v", err)
	}
	out := decodeOutput[documentStatisticsOutput](t, callTool(t, srv, "document_statistics", map[string]any{}))

	if out.TotalDocuments != want.TotalDocuments || out.Approved != want.Approved {
		t.Errorf("got %+v, want %+v", out, want)
	}
}

func TestReviewDocument(t *testing.T) {
	repo := newRepo()
	srv := NewServer(Deps{Repo: repo}, "test")
	doc, err := repo.UploadDocument(context.Background(), models.DocumentInput{ClientID: "client-1", Name: "W-9"})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	out := decodeOutput[reviewDocumentOutput](t, callTool(t, srv, "review_document", map[string]any{
		"document_id": doc.ID,
		"status":      "under_review",
		"reviewer_id": "emp-001",
		"comment":     "checking signature",
	}))
	if out.Message != "document "+doc.ID+" status updated to under_review" {
		t.Errorf("unexpected message %q", out.Message)
	}

	got, _ := repo.GetDocumentByID(context.Background(), doc.ID)
	if len(got.Comments) != 1 || got.ReviewedBy != "emp-001" {
		t.Errorf("review not recorded: %+v", got)
	}
}

func TestReviewDocumentInvalidTransition(t *testing.T) {
	repo := newRepo()
	srv := NewServer(Deps{Repo: repo}, "test")
	doc, _ := repo.UploadDocument(context.Background(), models.DocumentInput{ClientID: "client-1"})

	result := callTool(t, srv, "review_document", map[string]any{"document_id": doc.ID, "status": "approved"})
	if !result.IsError {
		t.Fatal("expected error for uploaded -> approved")
	}
}

// --- Screening tests ---

func TestScreenAdverseMedia(t *testing.T) {
	fs := &fakeScreener{result: &models.ScreeningResult{
		DateRange:     30,
		SearchDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		FindingsCount: 1,
		Findings:      []models.Finding{{Title: "Fine", Severity: models.SeverityHigh, Category: models.CategoryRegulatory}},
	}}
	srv := NewServer(Deps{Repo: newRepo(), Screener: fs}, "test")

	out := decodeOutput[screenOutput](t, callTool(t, srv, "screen_adverse_media", map[string]any{"entity_name": "Acme"}))

	if out.EntityName != "Acme" || out.FindingsCount != 1 {
		t.Errorf("unexpected output %+v", out)
	}
	if out.SearchDate != "2024-03-01T00:00:00Z" {
		t.Errorf("SearchDate = %s", out.SearchDate)
	}
}

func TestScreenAdverseMediaFailures(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")
	if result := callTool(t, srv, "screen_adverse_media", map[string]any{"entity_name": "Acme"}); !result.IsError {
		t.Error("expected error without a screener")
	}

	srv = NewServer(Deps{Repo: newRepo(), Screener: &fakeScreener{err: &screening.UpstreamError{StatusCode: 401}}}, "test")
	if result := callTool(t, srv, "screen_adverse_media", map[string]any{"entity_name": "Acme"}); !result.IsError {
		t.Error("expected error for upstream failure")
	}
}

// --- Observability tests ---

func TestGetMetrics(t *testing.T) {
	oldest := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{
		DocumentsUploaded: 4,
		DocumentsByStatus: map[string]int{"approved": 2},
		DocumentsApproved: 2,
		MessagesSent:      3,
		RecordsCreated:    map[string]int{"stamped_leads": 1},
		EventCount:        10,
		OldestEvent:       &oldest,
	}}
	srv := NewServer(Deps{Repo: newRepo(), Metrics: mc}, "test")

	out := decodeOutput[metricsOutput](t, callTool(t, srv, "get_metrics", map[string]any{"since": "30d"}))

	if out.DocumentsUploaded != 4 || out.EventCount != 10 {
		t.Errorf("unexpected metrics %+v", out)
	}
	if out.OldestEvent != "2024-01-01T00:00:00Z" {
		t.Errorf("OldestEvent = %s", out.OldestEvent)
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error result when metrics calculator is nil")
	}
}

func TestGetAlerts(t *testing.T) {
	ae := &fakeAlertEngine{alerts: []observability.Alert{{
		ID:          "risk-client-1",
		Condition:   observability.ConditionRiskReviewDue,
		Severity:    observability.SeverityHigh,
		Message:     "risk review overdue",
		EntityID:    "client-1",
		TriggeredAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	srv := NewServer(Deps{Repo: newRepo(), Alerts: ae}, "test")

	out := decodeOutput[getAlertsOutput](t, callTool(t, srv, "get_alerts", map[string]any{}))

	if out.Count != 1 || out.Alerts[0].Severity != "high" || out.Alerts[0].EntityID != "client-1" {
		t.Errorf("unexpected alerts %+v", out)
	}
}

func TestGetAlertsErrors(t *testing.T) {
	srv := NewServer(Deps{Repo: newRepo()}, "test")
	if result := callTool(t, srv, "get_alerts", map[string]any{}); !result.IsError {
		t.Error("expected error when alert engine is nil")
	}

	srv = NewServer(Deps{Repo: newRepo(), Alerts: &fakeAlertEngine{err: errors.New("store offline")}}, "test")
	if result := callTool(t, srv, "get_alerts", map[string]any{}); !result.IsError {
		t.Error("expected error when evaluation fails")
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"7d", now.AddDate(0, 0, -7), false},
		{"30d", now.AddDate(0, 0, -30), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{"", time.Time{}, true},
		{"x", time.Time{}, true},
		{"7x", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSince(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
