package screening

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/pkg/models"
	"github.com/tmc/langchaingo/llms"
)

var screenNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeModel returns a canned reply and records what it was asked.
type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
	calls    int
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestScreener(m *fakeModel) *Screener {
	return New(Config{
		Model:       m,
		Temperature: 0.3,
		MaxTokens:   2000,
		Clock:       func() time.Time { return screenNow },
		Logger:      zerolog.Nop(),
	})
}

func messageText(t *testing.T, mc llms.MessageContent) string {
	t.Helper()
	var sb strings.Builder
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestScreen_RequiresEntityName(t *testing.T) {
	m := &fakeModel{}
	_, err := newTestScreener(m).Screen(context.Background(), Request{EntityName: "   "})
	if !errors.Is(err, ErrEntityNameRequired) {
		t.Fatalf("error = %v, want ErrEntityNameRequired", err)
	}
	if m.calls != 0 {
		t.Errorf("model called %d times, want 0", m.calls)
	}
}

func TestScreen_BuildsPromptAndOptions(t *testing.T) {
	m := &fakeModel{reply: "[]"}
	res, err := newTestScreener(m).Screen(context.Background(), Request{EntityName: "Acme Corp"})
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if res.DateRange != DefaultDateRangeDays {
		t.Errorf("DateRange = %d, want %d", res.DateRange, DefaultDateRangeDays)
	}
	if len(m.messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(m.messages))
	}
	if m.messages[0].Role != llms.ChatMessageTypeSystem || m.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("roles = %s, %s", m.messages[0].Role, m.messages[1].Role)
	}
	prompt := messageText(t, m.messages[1])
	for _, want := range []string{`"Acme Corp"`, "between 2024-02-14 and 2024-03-15", "Return ONLY the JSON array"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if m.opts.Temperature != 0.3 || m.opts.MaxTokens != 2000 {
		t.Errorf("options = temperature %v, max tokens %d", m.opts.Temperature, m.opts.MaxTokens)
	}
}

func TestScreen_NormalizesFindings(t *testing.T) {
	m := &fakeModel{reply: "Here is what I found:\n```json\n" + `[
  {"title": "Regulator fines Acme", "description": "AML lapses", "date": "2024-02-20", "source": "Reuters", "severity": "high", "category": "Regulatory"},
  {"description": "Partial record"}
]` + "\n```\nLet me know if you need more."}

	res, err := newTestScreener(m).Screen(context.Background(), Request{EntityName: "Acme", DateRangeDays: 90})
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	want := []models.Finding{
		{Title: "Regulator fines Acme", Description: "AML lapses", Date: "2024-02-20", Source: "Reuters", Severity: models.SeverityHigh, Category: models.CategoryRegulatory},
		{Title: "No title", Description: "Partial record", Date: "2024-03-15", Source: "Unknown", Severity: models.SeverityMedium, Category: models.CategoryOther},
	}
	if diff := cmp.Diff(want, res.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if res.FindingsCount != 2 || res.DateRange != 90 || res.ParseFailed {
		t.Errorf("result = %+v", res)
	}
	if !res.SearchDate.Equal(screenNow) {
		t.Errorf("SearchDate = %v, want %v", res.SearchDate, screenNow)
	}
}

func TestScreen_ParseFailureIsNotCleanResult(t *testing.T) {
	m := &fakeModel{reply: "I could not find anything conclusive about this entity."}
	res, err := newTestScreener(m).Screen(context.Background(), Request{EntityName: "Acme"})
	if err != nil {
		t.Fatalf("Screen() error = %v, want parse failure result", err)
	}
	if !res.ParseFailed || res.Error != ParseFailureMessage {
		t.Errorf("ParseFailed = %v, Error = %q", res.ParseFailed, res.Error)
	}
	if res.RawResponse != m.reply {
		t.Errorf("RawResponse = %q", res.RawResponse)
	}
	if res.Findings == nil || len(res.Findings) != 0 {
		t.Errorf("Findings = %#v, want empty slice", res.Findings)
	}
}

func TestScreen_UpstreamError(t *testing.T) {
	m := &fakeModel{err: errors.New("API returned unexpected status code: 401: invalid api key")}
	_, err := newTestScreener(m).Screen(context.Background(), Request{EntityName: "Acme"})
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if up.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", up.StatusCode)
	}
	if !strings.Contains(up.Details, "invalid api key") {
		t.Errorf("Details = %q", up.Details)
	}
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"status in message", errors.New("API returned unexpected status code: 503"), 503},
		{"mapped rate limit", llms.NewError(llms.ErrCodeRateLimit, "openai", "slow down"), 429},
		{"wrapped cause", llms.NewError(llms.ErrCodeUnknown, "openai", "boom").WithCause(errors.New("status code: 418")), 418},
		{"transport failure", errors.New("dial tcp: connection refused"), 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFromError(tt.err); got != tt.want {
				t.Errorf("statusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScreen_NoModel(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	if _, err := s.Screen(context.Background(), Request{EntityName: "Acme"}); err == nil {
		t.Error("expected error without a model")
	}
}

func TestScreen_RateLimiterHonoursContext(t *testing.T) {
	m := &fakeModel{reply: "[]"}
	s := New(Config{Model: m, RequestsPerMinute: 1, Clock: func() time.Time { return screenNow }, Logger: zerolog.Nop()})
	ctx := context.Background()
	if _, err := s.Screen(ctx, Request{EntityName: "Acme"}); err != nil {
		t.Fatalf("first Screen() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := s.Screen(ctx, Request{EntityName: "Acme"}); err == nil {
		t.Error("second Screen() within the same minute should hit the limiter")
	}
	if m.calls != 1 {
		t.Errorf("model calls = %d, want 1", m.calls)
	}
}

func TestNewOpenAIModel_RequiresKey(t *testing.T) {
	_, err := NewOpenAIModel(models.ScreeningConfig{APIKeyEnv: "DEEPSEEK_API_KEY"}, "")
	if err == nil || !strings.Contains(err.Error(), "DEEPSEEK_API_KEY") {
		t.Errorf("error = %v, want mention of the key variable", err)
	}
}

func TestRequest_UnmarshalDateRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Request
		wantErr bool
	}{
		{`{"entityName":"Acme","dateRange":14}`, Request{EntityName: "Acme", DateRangeDays: 14}, false},
		{`{"entityName":"Acme","dateRange":"14"}`, Request{EntityName: "Acme", DateRangeDays: 14}, false},
		{`{"entityName":"Acme","dateRange":null}`, Request{EntityName: "Acme"}, false},
		{`{"entityName":"Acme","dateRange":""}`, Request{EntityName: "Acme"}, false},
		{`{"entityName":"Acme"}`, Request{EntityName: "Acme"}, false},
		{`{"entityName":"Acme","dateRange":"soon"}`, Request{}, true},
		{`{"entityName":"Acme","dateRange":[30]}`, Request{}, true},
	}
	for _, tt := range tests {
		var got Request
		err := json.Unmarshal([]byte(tt.in), &got)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
