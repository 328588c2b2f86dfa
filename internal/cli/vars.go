package cli

import (
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/assignment"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/httpapi"
	"github.com/stampedhq/onboard/internal/notify"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath  string
	Config    *models.GlobalConfig
	Logger    = zerolog.Nop()
	Repo      core.Repository
	Directory assignment.Directory
	Inbox     *notify.Inbox
	Bus       *realtime.Bus
	// Sink receives alert notifications; it is the inbox, fanned out to
	// Slack when enabled.
	Sink observability.NotificationSink
	// Screener is nil when no screening API key is configured.
	Screener httpapi.Screener
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
