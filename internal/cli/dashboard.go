package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/pkg/models"
)

// Dashboard panel indices.
const (
	panelPipeline = iota
	panelCompliance
	panelAlerts
	panelCount
)

// dashboardLoadTimeout bounds one refresh of the dashboard data.
const dashboardLoadTimeout = 15 * time.Second

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	stageCounts map[models.PipelineStage]int
	documents   *documentSnapshot
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type documentSnapshot struct {
	total        int
	underReview  int
	approved     int
	rejected     int
	approvalRate float64
}

type metricsSnapshot struct {
	uploads    int
	messages   int
	external   int
	eventCount int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	stageCounts map[models.PipelineStage]int
	documents   *documentSnapshot
	metrics     *metricsSnapshot
	alerts      []alertSnapshot
	err         error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	stageEarly     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stageProposal  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	stageNegotiate = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	stageConverted = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	stageLost      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelPipeline,
		loading:     true,
		stageCounts: make(map[models.PipelineStage]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stageCounts = msg.stageCounts
		m.documents = msg.documents
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Onboard Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	pipelinePanel := m.renderPipelinePanel()
	compliancePanel := m.renderCompliancePanel()
	alertsPanel := m.renderAlertsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		pipelinePanel = m.applyPanelStyle(panelPipeline, pipelinePanel, colWidth-4)
		compliancePanel = m.applyPanelStyle(panelCompliance, compliancePanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, pipelinePanel, compliancePanel, alertsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		pipelinePanel = m.applyPanelStyle(panelPipeline, pipelinePanel, panelWidth)
		compliancePanel = m.applyPanelStyle(panelCompliance, compliancePanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, pipelinePanel, compliancePanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderPipelinePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pipeline"))
	b.WriteString("\n")

	total := 0
	for _, c := range m.stageCounts {
		total += c
	}
	if total == 0 {
		b.WriteString("  No leads found.")
		return b.String()
	}

	for _, stage := range models.PipelineStages {
		count := m.stageCounts[stage]
		if count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", stage, count)
		b.WriteString(styleForStage(stage).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))

	return b.String()
}

func (m dashboardModel) renderCompliancePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Compliance (7d)"))
	b.WriteString("\n")

	if m.documents == nil && m.metricsData == nil {
		b.WriteString("  No compliance data available.")
		return b.String()
	}

	type line struct {
		label string
		value int
	}
	var lines []line
	if d := m.documents; d != nil {
		lines = append(lines,
			line{"Documents", d.total},
			line{"In review", d.underReview},
			line{"Approved", d.approved},
			line{"Rejected", d.rejected},
		)
	}
	if md := m.metricsData; md != nil {
		lines = append(lines,
			line{"Uploads", md.uploads},
			line{"Messages", md.messages},
			line{"From clients", md.external},
			line{"Events", md.eventCount},
		)
	}
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}
	if m.documents != nil {
		b.WriteString(fmt.Sprintf("\n  Approval rate: %.1f%%", m.documents.approvalRate))
	}

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForStage(stage models.PipelineStage) lipgloss.Style {
	switch stage {
	case models.StageProspecting, models.StageQualification:
		return stageEarly
	case models.StageProposal:
		return stageProposal
	case models.StageNegotiation:
		return stageNegotiate
	case models.StageConverted:
		return stageConverted
	case models.StageLost:
		return stageLost
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), dashboardLoadTimeout)
	defer cancel()

	result := dataLoadedMsg{
		stageCounts: make(map[models.PipelineStage]int),
	}

	if Repo != nil {
		stats, err := Repo.GetLeadStatistics(ctx)
		if err != nil {
			result.err = fmt.Errorf("loading leads: %w", err)
			return result
		}
		for stage, n := range stats.StageDistribution {
			result.stageCounts[stage] = n
		}

		docs, err := Repo.GetDocumentStatistics(ctx)
		if err != nil {
			result.err = fmt.Errorf("loading documents: %w", err)
			return result
		}
		result.documents = &documentSnapshot{
			total:        docs.TotalDocuments,
			underReview:  docs.UnderReview,
			approved:     docs.Approved,
			rejected:     docs.Rejected,
			approvalRate: docs.ApprovalRate,
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			uploads:    metrics.DocumentsUploaded,
			messages:   metrics.MessagesSent,
			external:   metrics.ExternalMessages,
			eventCount: metrics.EventCount,
		}
	}

	// Alerts arrive ordered by severity.
	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate(ctx)
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the pipeline, compliance and alerts",
	Long: `Launch an interactive terminal dashboard showing the lead pipeline,
document review progress, journal metrics and active alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Repo == nil {
			return fmt.Errorf("repository not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
