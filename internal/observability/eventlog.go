package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/realtime"
)

// Event is one journal line mirroring a bus event.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // bus event type, e.g. "document:uploaded"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using append-only JSONL files.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog creates a new EventLog backed by a JSONL file at the given
// path, creating parent directories as needed.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{
		path: path,
		file: f,
	}, nil
}

// Write appends a JSON-encoded event followed by a newline to the log file.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log file line by line and returns the events matching
// filter. Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// memoryEventLog keeps events in process. Used with the memory storage driver.
type memoryEventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryEventLog returns an EventLog that never touches disk.
func NewMemoryEventLog() EventLog {
	return &memoryEventLog{}
}

func (l *memoryEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *memoryEventLog) Read(filter EventFilter) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if matchesEventFilter(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memoryEventLog) Close() error { return nil }

// matchesEventFilter checks whether an event satisfies all filter criteria.
func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	return true
}

// AttachJournal mirrors every bus event into log. Write failures are logged
// and dropped. The returned func detaches the journal.
func AttachJournal(bus *realtime.Bus, log EventLog, now func() time.Time, logger zerolog.Logger) (detach func()) {
	if now == nil {
		now = time.Now
	}
	var unsubs []func()
	for _, et := range realtime.EventTypes {
		et := et
		unsubs = append(unsubs, bus.Subscribe(et, func(p realtime.Payload) {
			event := journalEvent(et, p)
			event.Time = now().UTC()
			if err := log.Write(event); err != nil {
				logger.Warn().Err(err).Str("event_type", string(et)).Msg("journal write failed")
			}
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// journalEvent flattens a payload into the fields metrics and alerts read.
// Full record snapshots are left out to keep lines small.
func journalEvent(et realtime.EventType, p realtime.Payload) Event {
	e := Event{Level: "INFO", Type: string(et), Data: map[string]any{}}
	switch v := p.(type) {
	case realtime.DocumentUploadedPayload:
		e.Message = "document uploaded"
		e.Data["document_id"] = v.DocumentID
		e.Data["entity_id"] = v.EntityID
		e.Data["entity_type"] = string(v.EntityType)
		e.Data["document_type"] = string(v.Document.Type)
		e.Data["status"] = string(v.Document.Status)
	case realtime.DocumentStatusChangedPayload:
		e.Message = "document status changed"
		e.Data["document_id"] = v.DocumentID
		e.Data["entity_id"] = v.EntityID
		e.Data["entity_type"] = string(v.EntityType)
		e.Data["previous_status"] = string(v.PreviousStatus)
		e.Data["status"] = string(v.Document.Status)
	case realtime.MessageSentPayload:
		e.Message = "message sent"
		e.Data["message_id"] = v.MessageID
		e.Data["conversation_id"] = v.ConversationID
		e.Data["sender_type"] = string(v.Message.SenderType)
	case realtime.DataUpdatedPayload:
		e.Message = v.Collection + " " + v.Action
		e.Data["collection"] = v.Collection
		e.Data["record_id"] = v.RecordID
		e.Data["action"] = v.Action
	}
	return e
}
