package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stampedhq/onboard/internal/observability"
)

// --- parseSinceDuration unit tests ---

func TestParseSinceDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"empty defaults to 7d", "", false, ""},
		{"whitespace defaults to 7d", "  ", false, ""},
		{"valid 7d", "7d", false, ""},
		{"valid 30d", "30d", false, ""},
		{"valid 24h", "24h", false, ""},
		{"valid 1h", "1h", false, ""},
		{"invalid suffix", "abc", true, "unsupported duration format"},
		{"invalid day number", "xd", true, "invalid day duration"},
		{"invalid hour number", "yh", true, "invalid hour duration"},
		{"negative day is still valid", "-5d", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSinceDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestParseSinceDuration_Window(t *testing.T) {
	before := time.Now().UTC()
	got, err := parseSinceDuration("2d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := before.AddDate(0, 0, -2)
	if d := got.Sub(want); d < 0 || d > time.Minute {
		t.Errorf("2d resolved to %v, want about %v", got, want)
	}
}

// --- metricsCmd tests ---

type metricsMock struct {
	calcFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calcFn(since)
}

func withMetrics(t *testing.T, calc observability.MetricsCalculator) {
	t.Helper()
	orig := MetricsCalc
	MetricsCalc = calc
	t.Cleanup(func() { MetricsCalc = orig })
}

func TestMetricsCmd_NilCalculator(t *testing.T) {
	withMetrics(t, nil)

	_, err := executeCommand(t, "metrics")
	if err == nil {
		t.Fatal("expected error when MetricsCalc is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_InvalidSinceFormat(t *testing.T) {
	withMetrics(t, &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{}, nil
		},
	})

	tests := []struct {
		name   string
		since  string
		errMsg string
	}{
		{"invalid suffix", "abc", "unsupported duration format"},
		{"invalid day number", "xd", "invalid day duration"},
		{"invalid hour number", "yh", "invalid hour duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, "metrics", "--since", tt.since)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestMetricsCmd_Success_TableFormat(t *testing.T) {
	oldest := time.Date(2024, 1, 29, 8, 0, 0, 0, time.UTC)
	newest := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	withMetrics(t, &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{
				EventCount:        42,
				DocumentsUploaded: 5,
				DocumentsApproved: 3,
				DocumentsRejected: 1,
				DocumentsByStatus: map[string]int{"under_review": 4, "approved": 3},
				MessagesSent:      9,
				ExternalMessages:  6,
				RecordsCreated:    map[string]int{"stamped_leads": 2},
				OldestEvent:       &oldest,
				NewestEvent:       &newest,
			}, nil
		},
	})

	out, err := executeCommand(t, "metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"Events recorded:", "42",
		"Documents uploaded:", "Documents approved:", "External messages:",
		"Status changes:", "approved:", "under_review:",
		"Records created:", "stamped_leads:",
		"Oldest event:", "2024-01-29T08:00:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Status changes print in key order.
	if strings.Index(out, "approved:") > strings.Index(out, "under_review:") {
		t.Errorf("status counts not sorted:\n%s", out)
	}
}

func TestMetricsCmd_Success_JSONFormat(t *testing.T) {
	withMetrics(t, &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{
				MessagesSent: 2,
				EventCount:   10,
			}, nil
		},
	})

	out, err := executeCommand(t, "metrics", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got observability.Metrics
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding metrics: %v", err)
	}
	if got.MessagesSent != 2 || got.EventCount != 10 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestMetricsCmd_CalculateError(t *testing.T) {
	withMetrics(t, &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return nil, fmt.Errorf("event log corrupted")
		},
	})

	_, err := executeCommand(t, "metrics")
	if err == nil {
		t.Fatal("expected error from Calculate")
	}
	if !strings.Contains(err.Error(), "calculating metrics") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_FromJournal(t *testing.T) {
	setupServices(t)

	if _, err := executeCommand(t, "docs", "upload", "--client", "client-2", "--file", "kvk.pdf"); err != nil {
		t.Fatalf("docs upload: %v", err)
	}
	if _, err := executeCommand(t, "docs", "review", "doc-04", "approved"); err != nil {
		t.Fatalf("docs review: %v", err)
	}
	if _, err := executeCommand(t, "messages", "send", "conv-3", "Thanks!",
		"--sender", "client-2-user", "--sender-type", "client"); err != nil {
		t.Fatalf("messages send: %v", err)
	}

	// The journal clock is fixed in early 2024, so widen the window.
	out, err := executeCommand(t, "metrics", "--since", "36500d", "--json")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	var got observability.Metrics
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding metrics: %v", err)
	}
	if got.EventCount != 3 || got.DocumentsUploaded != 1 || got.DocumentsApproved != 1 ||
		got.MessagesSent != 1 || got.ExternalMessages != 1 {
		t.Errorf("metrics = %+v", got)
	}
}
