package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stampedhq/onboard/pkg/models"
)

// slackSink posts notifications to a Slack incoming webhook.
type slackSink struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewSlackSink creates a Sink that posts each notification to the given
// Slack webhook URL.
func NewSlackSink(webhookURL string) Sink {
	return &slackSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *slackSink) AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error) {
	body, err := json.Marshal(buildSlackMessage(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling slack message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building slack request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return &models.Notification{
		NotificationRequest: req,
		ID:                  "slack-" + uuid.NewString(),
		CreatedAt:           s.now().UTC(),
	}, nil
}

func buildSlackMessage(req models.NotificationRequest) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: req.Title},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("%s %s", typeEmoji(req.Type), req.Message)},
		},
	}
	var meta []slackText
	if req.RecipientID != "" {
		meta = append(meta, slackText{Type: "mrkdwn", Text: "for `" + req.RecipientID + "`"})
	}
	if req.ActionURL != "" {
		meta = append(meta, slackText{Type: "mrkdwn", Text: req.ActionURL})
	}
	if len(meta) > 0 {
		blocks = append(blocks, slackBlock{Type: "context", Elements: meta})
	}
	return slackMessage{Blocks: blocks}
}

func typeEmoji(t models.NotificationType) string {
	switch t {
	case models.NotificationError:
		return "\U0001f534"
	case models.NotificationWarning:
		return "\U0001f7e1"
	case models.NotificationSuccess:
		return "\U0001f7e2"
	default:
		return "\U0001f535"
	}
}
