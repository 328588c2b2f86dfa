package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/pkg/models"
)

// mockDashboardMetrics implements observability.MetricsCalculator.
type mockDashboardMetrics struct {
	metrics *observability.Metrics
	err     error
}

func (m *mockDashboardMetrics) Calculate(_ time.Time) (*observability.Metrics, error) {
	return m.metrics, m.err
}

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.activePanel != panelPipeline {
		t.Errorf("expected activePanel = %d, got %d", panelPipeline, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.stageCounts == nil {
		t.Error("expected stageCounts to be initialized")
	}

	// Init should return a command (loadData).
	cmd := m.Init()
	if cmd == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_KeyQ(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected tea.Quit command from q key")
	}

	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}

	dm := updated.(dashboardModel)
	if dm.activePanel != panelPipeline {
		t.Errorf("expected activePanel unchanged, got %d", dm.activePanel)
	}
}

func TestDashboardModel_KeyEsc(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected tea.Quit command from esc key")
	}
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestDashboardModel_KeyTab(t *testing.T) {
	m := newDashboardModel()

	want := []int{panelCompliance, panelAlerts, panelPipeline}
	var model tea.Model = m
	for i, w := range want {
		var cmd tea.Cmd
		model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyTab})
		if cmd != nil {
			t.Error("expected no command from tab key")
		}
		if got := model.(dashboardModel).activePanel; got != w {
			t.Errorf("after tab %d: panel = %d, want %d", i+1, got, w)
		}
	}
}

func TestDashboardModel_KeyShiftTab(t *testing.T) {
	m := newDashboardModel()

	// Shift+Tab wraps from the first panel to the last.
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if cmd != nil {
		t.Error("expected no command from shift+tab")
	}
	dm := updated.(dashboardModel)
	if dm.activePanel != panelAlerts {
		t.Errorf("expected panel %d after shift+tab from 0, got %d", panelAlerts, dm.activePanel)
	}
}

func TestDashboardModel_KeyR(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	dm := updated.(dashboardModel)
	if !dm.loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a command (loadData) from r key")
	}
}

func TestDashboardModel_DataLoaded(t *testing.T) {
	m := newDashboardModel()

	msg := dataLoadedMsg{
		stageCounts: map[models.PipelineStage]int{
			models.StageProposal:    2,
			models.StageNegotiation: 1,
		},
		documents: &documentSnapshot{total: 6, underReview: 1, approved: 3, approvalRate: 50},
		metrics:   &metricsSnapshot{uploads: 4, messages: 9, external: 5, eventCount: 42},
		alerts: []alertSnapshot{
			{severity: "high", message: "KvK Extract.pdf in review for 18 days", time: "2024-02-01 09:30 UTC"},
			{severity: "low", message: "missing documents", time: "2024-02-01 09:30 UTC"},
		},
	}

	updated, cmd := m.Update(msg)
	if cmd != nil {
		t.Error("expected no command after dataLoadedMsg")
	}

	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after data loaded")
	}
	if dm.err != nil {
		t.Errorf("expected no error, got: %v", dm.err)
	}
	if dm.stageCounts[models.StageProposal] != 2 {
		t.Errorf("expected proposal = 2, got %d", dm.stageCounts[models.StageProposal])
	}
	if dm.documents == nil || dm.documents.approved != 3 {
		t.Errorf("documents = %+v", dm.documents)
	}
	if dm.metricsData == nil {
		t.Fatal("expected metricsData to be set")
	}
	if dm.metricsData.eventCount != 42 {
		t.Errorf("expected eventCount = 42, got %d", dm.metricsData.eventCount)
	}
	if len(dm.alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(dm.alerts))
	}
}

func TestDashboardModel_DataLoadedError(t *testing.T) {
	m := newDashboardModel()

	updated, _ := m.Update(dataLoadedMsg{err: errors.New("connection failed")})
	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after error")
	}
	if dm.err == nil || dm.err.Error() != "connection failed" {
		t.Fatalf("err = %v, want connection failed", dm.err)
	}

	dm.width = 100
	if view := dm.View(); !strings.Contains(view, "Error: connection failed") {
		t.Errorf("error view = %q", view)
	}
}

func TestDashboardModel_WindowResize(t *testing.T) {
	m := newDashboardModel()

	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if cmd != nil {
		t.Error("expected no command from window resize")
	}
	dm := updated.(dashboardModel)
	if dm.width != 200 || dm.height != 50 {
		t.Errorf("size = %dx%d, want 200x50", dm.width, dm.height)
	}
}

func TestDashboardModel_ViewLoading(t *testing.T) {
	m := newDashboardModel()
	if view := m.View(); view != "Loading..." {
		t.Errorf("view before first resize = %q", view)
	}

	m.width = 100
	m.height = 40
	if view := m.View(); !strings.Contains(view, "Loading data") {
		t.Error("expected loading view to contain 'Loading data'")
	}
}

func TestDashboardModel_ViewWithData(t *testing.T) {
	m := newDashboardModel()
	m.width = 130
	m.height = 40
	m.loading = false
	m.stageCounts = map[models.PipelineStage]int{
		models.StageProposal:  2,
		models.StageConverted: 1,
	}
	m.documents = &documentSnapshot{total: 6, approved: 3, approvalRate: 50}
	m.metricsData = &metricsSnapshot{uploads: 2, eventCount: 20}
	m.alerts = []alertSnapshot{
		{severity: "high", message: "Acme overdue"},
	}

	view := m.View()
	for _, want := range []string{
		"Onboard Dashboard", "Pipeline", "Compliance (7d)", "Alerts",
		"proposal", "Total: 3", "Approval rate: 50.0%", "[HIGH]", "Acme overdue",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardModel_ViewEmptyPanels(t *testing.T) {
	m := newDashboardModel()
	m.width = 80 // Narrow terminals stack the panels vertically.
	m.height = 40
	m.loading = false

	view := m.View()
	for _, want := range []string{"No leads found.", "No compliance data available.", "No active alerts."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStyleForSeverity_CaseInsensitive(t *testing.T) {
	if styleForSeverity("HIGH").Render("x") != severityHigh.Render("x") {
		t.Error("HIGH should use the high severity style")
	}
}

func TestDashboardLoadData(t *testing.T) {
	setupServices(t)

	now := time.Now().UTC()
	MetricsCalc = &mockDashboardMetrics{
		metrics: &observability.Metrics{
			DocumentsUploaded: 3,
			MessagesSent:      5,
			ExternalMessages:  2,
			EventCount:        15,
			OldestEvent:       &now,
			NewestEvent:       &now,
		},
	}
	AlertEngine = staticAlerts(observability.Alert{
		Severity:    observability.SeverityHigh,
		Message:     "document review too long",
		TriggeredAt: now,
	})

	msg := loadData()
	data, ok := msg.(dataLoadedMsg)
	if !ok {
		t.Fatalf("expected dataLoadedMsg, got %T", msg)
	}
	if data.err != nil {
		t.Fatalf("unexpected error: %v", data.err)
	}
	if data.stageCounts[models.StageProposal] != 2 || data.stageCounts[models.StageQualification] != 2 {
		t.Errorf("stage counts = %v", data.stageCounts)
	}
	if data.documents == nil || data.documents.total != 6 || data.documents.approvalRate != 50 {
		t.Errorf("documents = %+v", data.documents)
	}
	if data.metrics == nil || data.metrics.uploads != 3 || data.metrics.external != 2 {
		t.Fatalf("metrics = %+v", data.metrics)
	}
	if len(data.alerts) != 1 || data.alerts[0].severity != "high" {
		t.Errorf("alerts = %+v", data.alerts)
	}
}

func TestDashboardLoadData_MetricsError(t *testing.T) {
	setupServices(t)
	MetricsCalc = &mockDashboardMetrics{err: errors.New("journal unreadable")}

	data := loadData().(dataLoadedMsg)
	if data.err == nil || !strings.Contains(data.err.Error(), "loading metrics") {
		t.Errorf("err = %v, want loading metrics", data.err)
	}
}

func TestDashboardCmd_NilRepo(t *testing.T) {
	orig := Repo
	defer func() { Repo = orig }()
	Repo = nil

	_, err := executeCommand(t, "dashboard")
	if err == nil {
		t.Fatal("expected error when Repo is nil")
	}
	if !strings.Contains(err.Error(), "repository not initialized") {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}
