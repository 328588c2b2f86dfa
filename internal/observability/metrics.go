package observability

import (
	"fmt"
	"time"

	"github.com/stampedhq/onboard/internal/realtime"
)

// Metrics holds onboarding activity counts derived from the journal.
type Metrics struct {
	DocumentsUploaded int            `json:"documents_uploaded"`
	DocumentsByStatus map[string]int `json:"documents_by_status"`
	DocumentsApproved int            `json:"documents_approved"`
	DocumentsRejected int            `json:"documents_rejected"`
	MessagesSent      int            `json:"messages_sent"`
	ExternalMessages  int            `json:"external_messages"`
	RecordsCreated    map[string]int `json:"records_created"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
// DocumentsByStatus counts status changes by the status moved into.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		DocumentsByStatus: make(map[string]int),
		RecordsCreated:    make(map[string]int),
	}

	m.EventCount = len(events)

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			m.OldestEvent = &t
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			n := t
			m.NewestEvent = &n
		}

		switch realtime.EventType(event.Type) {
		case realtime.DocumentUploaded:
			m.DocumentsUploaded++
		case realtime.DocumentStatusChanged:
			status, _ := event.Data["status"].(string)
			if status == "" {
				continue
			}
			m.DocumentsByStatus[status]++
			switch status {
			case "approved":
				m.DocumentsApproved++
			case "rejected":
				m.DocumentsRejected++
			}
		case realtime.MessageSent:
			m.MessagesSent++
			if st, _ := event.Data["sender_type"].(string); st == "client" || st == "vendor" {
				m.ExternalMessages++
			}
		case realtime.DataUpdated:
			if action, _ := event.Data["action"].(string); action == "created" {
				coll, _ := event.Data["collection"].(string)
				m.RecordsCreated[coll]++
			}
		}
	}

	return m, nil
}
