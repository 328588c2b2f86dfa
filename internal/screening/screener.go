// Package screening runs adverse media searches against an OpenAI-compatible
// chat model and turns its answer into normalized findings.
package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// DefaultDateRangeDays is the look-back window used when none is given.
const DefaultDateRangeDays = 30

// ParseFailureMessage is set on results whose model output could not be read.
const ParseFailureMessage = "Failed to parse AI response"

// ErrEntityNameRequired is returned when a request has no entity name.
var ErrEntityNameRequired = errors.New("entity name is required")

// UpstreamError reports a failed call to the model provider.
type UpstreamError struct {
	StatusCode int
	Details    string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("adverse media provider returned %d: %s", e.StatusCode, e.Details)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Request describes one adverse media search.
type Request struct {
	EntityName    string `json:"entityName"`
	DateRangeDays int    `json:"dateRange"`
}

// UnmarshalJSON accepts dateRange as a JSON number or a numeric string.
// A missing, null or empty dateRange decodes to zero.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		EntityName string          `json:"entityName"`
		DateRange  json.RawMessage `json:"dateRange"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	days, err := parseDateRange(raw.DateRange)
	if err != nil {
		return err
	}
	r.EntityName = raw.EntityName
	r.DateRangeDays = days
	return nil
}

func parseDateRange(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("dateRange must be a number, got %s", raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("dateRange %q is not a number: %w", s, err)
	}
	return n, nil
}

// Config wires a Screener. A zero RequestsPerMinute disables rate limiting.
type Config struct {
	Model             llms.Model
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
	Clock             func() time.Time
	Logger            zerolog.Logger
}

// Screener performs adverse media searches.
type Screener struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	limiter     *rate.Limiter
	now         func() time.Time
	logger      zerolog.Logger
}

// New creates a Screener around cfg.Model.
func New(cfg Config) *Screener {
	s := &Screener{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		now:         cfg.Clock,
		logger:      cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	return s
}

// NewOpenAIModel builds a langchaingo OpenAI client for the configured
// endpoint, which defaults to DeepSeek.
func NewOpenAIModel(cfg models.ScreeningConfig, apiKey string) (llms.Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("creating screening model: no API key in $%s", cfg.APIKeyEnv)
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating screening model: %w", err)
	}
	return llm, nil
}

// Screen asks the model for adverse media about req.EntityName. Output that
// cannot be parsed yields a result with ParseFailed set and the raw text
// attached, never an error. Provider failures return *UpstreamError.
func (s *Screener) Screen(ctx context.Context, req Request) (*models.ScreeningResult, error) {
	name := strings.TrimSpace(req.EntityName)
	if name == "" {
		return nil, ErrEntityNameRequired
	}
	if s.model == nil {
		return nil, fmt.Errorf("screening %s: no model configured", name)
	}
	days := req.DateRangeDays
	if days <= 0 {
		days = DefaultDateRangeDays
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("screening %s: waiting for rate limiter: %w", name, err)
		}
	}

	now := s.now().UTC()
	from := now.AddDate(0, 0, -days)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(name, from, now)),
	}
	opts := []llms.CallOption{llms.WithTemperature(s.temperature)}
	if s.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.maxTokens))
	}

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("screening %s: %w", name, ctxErr)
		}
		upstream := &UpstreamError{StatusCode: statusFromError(err), Details: err.Error(), Err: err}
		s.logger.Error().Err(err).Str("entity", name).Int("status", upstream.StatusCode).Msg("adverse media provider call failed")
		return nil, upstream
	}

	content := ""
	if resp != nil && len(resp.Choices) > 0 && resp.Choices[0] != nil {
		content = resp.Choices[0].Content
	}

	result := &models.ScreeningResult{
		EntityName: name,
		DateRange:  days,
		SearchDate: now,
	}
	findings, err := ExtractFindings(content, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("entity", name).Msg("failed to parse adverse media response")
		result.Findings = []models.Finding{}
		result.ParseFailed = true
		result.Error = ParseFailureMessage
		result.RawResponse = content
		return result, nil
	}
	result.Findings = findings
	result.FindingsCount = len(findings)
	s.logger.Info().
		Str("entity", name).
		Int("findings", len(findings)).
		Dur("elapsed", time.Since(start)).
		Msg("adverse media screening complete")
	return result, nil
}

var statusPattern = regexp.MustCompile(`status code:? (\d{3})`)

// statusFromError recovers the HTTP status from a provider error chain,
// falling back on the error code and finally 502.
func statusFromError(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if m := statusPattern.FindStringSubmatch(e.Error()); m != nil {
			if code, convErr := strconv.Atoi(m[1]); convErr == nil {
				return code
			}
		}
	}
	var llmErr *llms.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case llms.ErrCodeAuthentication:
			return http.StatusUnauthorized
		case llms.ErrCodeRateLimit, llms.ErrCodeQuotaExceeded:
			return http.StatusTooManyRequests
		case llms.ErrCodeInvalidRequest, llms.ErrCodeTokenLimit:
			return http.StatusBadRequest
		case llms.ErrCodeResourceNotFound:
			return http.StatusNotFound
		case llms.ErrCodeTimeout:
			return http.StatusGatewayTimeout
		case llms.ErrCodeProviderUnavailable:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}
