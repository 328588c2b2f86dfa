package observability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionReviewTooLong    = "document_review_too_long"
	ConditionRiskReviewDue    = "risk_review_overdue"
	ConditionMissingDocuments = "required_documents_missing"
)

// Alert represents a triggered compliance condition.
type Alert struct {
	ID          string            `json:"id"`
	Condition   string            `json:"condition"`
	Severity    AlertSeverity     `json:"severity"`
	Message     string            `json:"message"`
	EntityID    string            `json:"entity_id"`
	EntityType  models.EntityType `json:"entity_type"`
	DocumentID  string            `json:"document_id,omitempty"`
	TriggeredAt time.Time         `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	ReviewDays          int `yaml:"review_days" json:"review_days"`
	RiskReviewGraceDays int `yaml:"risk_review_grace_days" json:"risk_review_grace_days"`
}

// DefaultAlertThresholds returns the stock thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		ReviewDays:          5,
		RiskReviewGraceDays: 0,
	}
}

// ComplianceSource is the slice of the repository alerts read from.
// Defined here to avoid importing core.
type ComplianceSource interface {
	GetClients(ctx context.Context) ([]models.Client, error)
	GetDocuments(ctx context.Context) ([]models.Document, error)
}

// AlertEngine evaluates compliance alert conditions.
type AlertEngine interface {
	Evaluate(ctx context.Context) ([]Alert, error)
}

type alertEngine struct {
	source     ComplianceSource
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over source. eventLog may be nil; when
// set, it dates the moment a document entered review more precisely than
// its upload time.
func NewAlertEngine(source ComplianceSource, eventLog EventLog, thresholds AlertThresholds, now func() time.Time) AlertEngine {
	if now == nil {
		now = time.Now
	}
	return &alertEngine{
		source:     source,
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        now,
	}
}

// Evaluate checks every condition and returns the triggered alerts ordered
// by severity, then id.
func (ae *alertEngine) Evaluate(ctx context.Context) ([]Alert, error) {
	now := ae.now().UTC()

	clients, err := ae.source.GetClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading clients for alerts: %w", err)
	}
	docs, err := ae.source.GetDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents for alerts: %w", err)
	}

	reviewAlerts, err := ae.checkLongReviews(docs, now)
	if err != nil {
		return nil, fmt.Errorf("checking long reviews: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, reviewAlerts...)
	alerts = append(alerts, ae.checkRiskReviews(clients, now)...)
	alerts = append(alerts, checkMissingDocuments(clients, docs, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

// checkLongReviews flags documents that have sat in under_review longer
// than the threshold.
func (ae *alertEngine) checkLongReviews(docs []models.Document, now time.Time) ([]Alert, error) {
	enteredReview := map[string]time.Time{}
	if ae.eventLog != nil {
		events, err := ae.eventLog.Read(EventFilter{Type: string(realtime.DocumentStatusChanged)})
		if err != nil {
			return nil, err
		}
		for _, event := range events {
			docID, _ := event.Data["document_id"].(string)
			status, _ := event.Data["status"].(string)
			if docID != "" && status == string(models.DocStatusUnderReview) {
				enteredReview[docID] = event.Time
			}
		}
	}

	threshold := time.Duration(ae.thresholds.ReviewDays) * 24 * time.Hour
	var alerts []Alert
	for _, d := range docs {
		if d.Status != models.DocStatusUnderReview {
			continue
		}
		since, ok := enteredReview[d.ID]
		if !ok {
			since = d.UploadedAt
		}
		if since.IsZero() || now.Sub(since) <= threshold {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "review-" + d.ID,
			Condition:   ConditionReviewTooLong,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("document %s (%s) has been under review for more than %d days", d.ID, d.Name, ae.thresholds.ReviewDays),
			EntityID:    d.ClientID,
			EntityType:  models.EntityClient,
			DocumentID:  d.ID,
			TriggeredAt: now,
		})
	}
	return alerts, nil
}

// checkRiskReviews flags clients whose scheduled risk review has passed.
func (ae *alertEngine) checkRiskReviews(clients []models.Client, now time.Time) []Alert {
	grace := time.Duration(ae.thresholds.RiskReviewGraceDays) * 24 * time.Hour
	var alerts []Alert
	for _, c := range clients {
		if c.LifecycleStage == models.LifecycleOffboarded {
			continue
		}
		due := c.RiskAssessment.NextReviewDate
		if due.IsZero() || !now.After(due.Add(grace)) {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "risk-" + c.ID,
			Condition:   ConditionRiskReviewDue,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("risk review for %s was due on %s", c.CompanyName, due.Format("2006-01-02")),
			EntityID:    c.ID,
			EntityType:  models.EntityClient,
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkMissingDocuments flags onboarding clients that have not supplied a
// usable document for every required type. Rejected and expired documents
// do not count.
func checkMissingDocuments(clients []models.Client, docs []models.Document, now time.Time) []Alert {
	have := map[string]map[models.DocumentType]bool{}
	for _, d := range docs {
		switch d.Status {
		case models.DocStatusUploaded, models.DocStatusUnderReview, models.DocStatusApproved:
		default:
			continue
		}
		if have[d.ClientID] == nil {
			have[d.ClientID] = map[models.DocumentType]bool{}
		}
		have[d.ClientID][d.Type] = true
	}

	var alerts []Alert
	for _, c := range clients {
		if c.LifecycleStage != models.LifecycleOnboarding {
			continue
		}
		var missing []string
		for _, req := range c.RequiredDocuments {
			if !have[c.ID][req] {
				missing = append(missing, string(req))
			}
		}
		if len(missing) == 0 {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "missing-" + c.ID,
			Condition:   ConditionMissingDocuments,
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("%s is missing %d required document(s): %v", c.CompanyName, len(missing), missing),
			EntityID:    c.ID,
			EntityType:  models.EntityClient,
			TriggeredAt: now,
		})
	}
	return alerts
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// AlertsToNotifications converts alerts into notification requests without
// recipients.
func AlertsToNotifications(alerts []Alert) []models.NotificationRequest {
	out := make([]models.NotificationRequest, 0, len(alerts))
	for _, a := range alerts {
		req := models.NotificationRequest{
			Title:   alertTitle(a.Condition),
			Message: a.Message,
			Type:    notificationType(a.Severity),
			Metadata: models.NotificationMetadata{
				AlertID:    a.ID,
				ClientID:   a.EntityID,
				DocumentID: a.DocumentID,
			},
		}
		switch a.Condition {
		case ConditionReviewTooLong:
			req.ActionURL = "/compliance/documents"
		default:
			req.ActionURL = "/compliance/clients/" + a.EntityID
		}
		out = append(out, req)
	}
	return out
}

// OfficerResolver finds the compliance officer responsible for an entity.
type OfficerResolver interface {
	GetAssignedOfficer(ctx context.Context, entityID string, entityType models.EntityType) (*models.Employee, error)
}

// NotificationSink accepts staff notifications.
type NotificationSink interface {
	AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error)
}

// NotifyAlerts routes each alert to the officer assigned to its entity.
// Alerts for unassigned entities are skipped. It returns the number sent
// and the joined delivery errors.
func NotifyAlerts(ctx context.Context, alerts []Alert, officers OfficerResolver, sink NotificationSink) (int, error) {
	reqs := AlertsToNotifications(alerts)
	sent := 0
	var errs []error
	for i, req := range reqs {
		officer, err := officers.GetAssignedOfficer(ctx, alerts[i].EntityID, alerts[i].EntityType)
		if err != nil {
			continue
		}
		req.RecipientID = officer.ID
		if _, err := sink.AddNotification(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("notifying %s about %s: %w", officer.ID, alerts[i].ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func alertTitle(condition string) string {
	switch condition {
	case ConditionReviewTooLong:
		return "Document Review Overdue"
	case ConditionRiskReviewDue:
		return "Risk Review Overdue"
	case ConditionMissingDocuments:
		return "Required Documents Missing"
	default:
		return "Compliance Alert"
	}
}

func notificationType(s AlertSeverity) models.NotificationType {
	switch s {
	case SeverityHigh:
		return models.NotificationError
	case SeverityMedium:
		return models.NotificationWarning
	default:
		return models.NotificationInfo
	}
}
