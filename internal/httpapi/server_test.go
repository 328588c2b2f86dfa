package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/pkg/models"
)

type fakeScreener struct {
	result *models.ScreeningResult
	err    error
	got    screening.Request
}

func (f *fakeScreener) Screen(_ context.Context, req screening.Request) (*models.ScreeningResult, error) {
	f.got = req
	if strings.TrimSpace(req.EntityName) == "" {
		return nil, screening.ErrEntityNameRequired
	}
	return f.result, f.err
}

func newTestServer(t *testing.T, screener Screener) (*Server, *realtime.Bus) {
	t.Helper()
	bus := realtime.NewBus()
	var n atomic.Int64
	repo := core.NewRepository(core.RepositoryDeps{
		Bus:     bus,
		Latency: latency.None(),
		Clock:   func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) },
		IDs: func(prefix string) string {
			return fmt.Sprintf("%s-new-%d", prefix, n.Add(1))
		},
		Logger: zerolog.Nop(),
	})
	return NewServer(Deps{Repo: repo, Screener: screener, Bus: bus, Logger: zerolog.Nop()}), bus
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

// --- Adverse media tests ---

func TestAdverseMedia_NameRequired(t *testing.T) {
	s, _ := newTestServer(t, &fakeScreener{})
	rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"  ","dateRange":30}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["error"] != "Entity name is required" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestAdverseMedia_Success(t *testing.T) {
	result := &models.ScreeningResult{
		EntityName:    "Acme Corp",
		DateRange:     14,
		SearchDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		FindingsCount: 1,
		Findings:      []models.Finding{{Title: "Fine", Severity: models.SeverityHigh, Category: models.CategoryRegulatory}},
	}
	fs := &fakeScreener{result: result}
	s, _ := newTestServer(t, fs)

	rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"Acme Corp","dateRange":14}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if fs.got.EntityName != "Acme Corp" || fs.got.DateRangeDays != 14 {
		t.Errorf("screener got %+v", fs.got)
	}
	got := decode[models.ScreeningResult](t, rec)
	if diff := cmp.Diff(*result, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestAdverseMedia_ParseFailureIs200(t *testing.T) {
	fs := &fakeScreener{result: &models.ScreeningResult{
		EntityName:  "Acme",
		DateRange:   30,
		Findings:    []models.Finding{},
		ParseFailed: true,
		Error:       screening.ParseFailureMessage,
		RawResponse: "not json",
	}}
	s, _ := newTestServer(t, fs)

	rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"Acme"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["error"] != screening.ParseFailureMessage || body["rawResponse"] != "not json" {
		t.Errorf("body = %v", body)
	}
}

func TestAdverseMedia_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"upstream 401", &screening.UpstreamError{StatusCode: 401, Details: "bad key"}, http.StatusUnauthorized},
		{"upstream 429", &screening.UpstreamError{StatusCode: 429, Details: "slow down"}, http.StatusTooManyRequests},
		{"upstream bogus code", &screening.UpstreamError{StatusCode: 200}, http.StatusBadGateway},
		{"wrapped upstream", fmt.Errorf("outer: %w", &screening.UpstreamError{StatusCode: 503}), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeScreener{err: tt.err})
			rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"Acme"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdverseMedia_DateRangeForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"number", `{"entityName":"Acme","dateRange":30}`, 30},
		{"numeric string", `{"entityName":"Acme","dateRange":"30"}`, 30},
		{"padded string", `{"entityName":"Acme","dateRange":" 7 "}`, 7},
		{"empty string", `{"entityName":"Acme","dateRange":""}`, 0},
		{"absent", `{"entityName":"Acme"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeScreener{result: &models.ScreeningResult{EntityName: "Acme", Findings: []models.Finding{}}}
			s, _ := newTestServer(t, fs)
			rec := do(t, s, http.MethodPost, "/api/adverse-media", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if fs.got.DateRangeDays != tt.want {
				t.Errorf("DateRangeDays = %d, want %d", fs.got.DateRangeDays, tt.want)
			}
		})
	}
}

func TestAdverseMedia_NonNumericDateRange(t *testing.T) {
	s, _ := newTestServer(t, &fakeScreener{})
	rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"Acme","dateRange":"a month"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdverseMedia_NoScreener(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/adverse-media", `{"entityName":"Acme"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// --- Lead route tests ---

func TestListLeads_FilterAndSearch(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/leads?industry=Technology&minScore=80", []string{"lead-01", "lead-05"}},
		{"/api/leads?q=northwind", []string{"lead-01"}},
		{"/api/leads?q=northwind&country=Germany", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			leads := decode[[]models.Lead](t, rec)
			ids := []string{}
			for _, l := range leads {
				ids = append(ids, l.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListLeads_BadScore(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/leads?maxScore=high", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAndPatchLead(t *testing.T) {
	s, bus := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/leads", `{"companyName":"Zenith Labs","industry":"Technology","aiScore":70}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	lead := decode[models.Lead](t, rec)
	if lead.ID != "lead-new-1" || lead.AIScore != 70 || lead.AIScoreBreakdown.Overall != 70 {
		t.Errorf("created lead = %+v", lead)
	}

	rec = do(t, s, http.MethodPatch, "/api/leads/"+lead.ID, `{"pipelineStage":"proposal"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[models.Lead](t, rec); got.PipelineStage != models.StageProposal {
		t.Errorf("stage = %s", got.PipelineStage)
	}

	if n := len(bus.History(realtime.DataUpdated)); n != 2 {
		t.Errorf("data:updated events = %d, want 2", n)
	}
}

func TestPatchLead_Errors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	if rec := do(t, s, http.MethodPatch, "/api/leads/lead-404", `{"notes":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown lead status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodPatch, "/api/leads/lead-01", `{"aiScore":150}`); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range score status = %d, want 400", rec.Code)
	}
}

// --- Document and message route tests ---

func TestUploadDocument_AndStats(t *testing.T) {
	s, bus := newTestServer(t, nil)
	before := decode[models.DocumentStatistics](t, do(t, s, http.MethodGet, "/api/stats/documents", ""))

	rec := do(t, s, http.MethodPost, "/api/documents", `{"clientId":"client-1","type":"tax_form","name":"W-9","fileName":"W-9.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	doc := decode[models.Document](t, rec)
	if doc.Status != models.DocStatusUploaded {
		t.Errorf("status = %s", doc.Status)
	}

	after := decode[models.DocumentStatistics](t, do(t, s, http.MethodGet, "/api/stats/documents", ""))
	if after.TotalDocuments != before.TotalDocuments+1 || after.Uploaded != before.Uploaded+1 {
		t.Errorf("stats before %+v after %+v", before, after)
	}

	events := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/api/events?type=document:uploaded", ""))
	if len(events) != 1 || len(bus.History(realtime.DocumentUploaded)) != 1 {
		t.Errorf("document:uploaded events = %v", events)
	}
}

func TestDocumentStatus_Transitions(t *testing.T) {
	s, _ := newTestServer(t, nil)
	doc := decode[models.Document](t, do(t, s, http.MethodPost, "/api/documents", `{"clientId":"client-1","name":"ID"}`))

	rec := do(t, s, http.MethodPost, "/api/documents/"+doc.ID+"/status", `{"status":"approved"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("skip-review status = %d, want 409", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/documents/"+doc.ID+"/status", `{"status":"under_review","reviewerId":"emp-001"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("review status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPost, "/api/documents/"+doc.ID+"/status", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing status = %d, want 400", rec.Code)
	}
}

func TestListDocuments_Filters(t *testing.T) {
	s, _ := newTestServer(t, nil)
	docs := decode[[]models.Document](t, do(t, s, http.MethodGet, "/api/documents?clientId=client-1&status=approved", ""))
	for _, d := range docs {
		if d.ClientID != "client-1" || d.Status != models.DocStatusApproved {
			t.Errorf("document %s violates filter", d.ID)
		}
	}
}

func TestListEvents_NoMatchesIsEmptyArray(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/events?type=message:sent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestSendMessage(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/messages", `{"conversationId":"conv-1","senderId":"client-1","content":"hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	msg := decode[models.Message](t, rec)
	if msg.SenderType != models.SenderClient || msg.Read {
		t.Errorf("message = %+v", msg)
	}

	msgs := decode[[]models.Message](t, do(t, s, http.MethodGet, "/api/conversations/conv-1/messages", ""))
	if msgs[len(msgs)-1].ID != msg.ID {
		t.Errorf("last message = %s, want %s", msgs[len(msgs)-1].ID, msg.ID)
	}

	if rec := do(t, s, http.MethodPost, "/api/messages", `{"conversationId":"conv-404","content":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown conversation status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/messages", `{"content":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing conversation status = %d, want 400", rec.Code)
	}
}

func TestLeadStatistics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	stats := decode[models.LeadStatistics](t, do(t, s, http.MethodGet, "/api/stats/leads", ""))
	if stats.TotalLeads != 8 {
		t.Errorf("TotalLeads = %d, want 8", stats.TotalLeads)
	}
}

func TestHealthAndUnconfiguredAlerts(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/alerts", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("alerts status = %d, want 503", rec.Code)
	}
}
