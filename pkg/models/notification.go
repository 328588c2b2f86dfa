package models

import "time"

// NotificationType sets the visual tone of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// NotificationMetadata correlates a notification with the records that
// triggered it. Unused fields stay empty.
type NotificationMetadata struct {
	DocumentID     string       `yaml:"document_id,omitempty" json:"documentId,omitempty"`
	ClientID       string       `yaml:"client_id,omitempty" json:"clientId,omitempty"`
	DocumentType   DocumentType `yaml:"document_type,omitempty" json:"documentType,omitempty"`
	MessageID      string       `yaml:"message_id,omitempty" json:"messageId,omitempty"`
	ConversationID string       `yaml:"conversation_id,omitempty" json:"conversationId,omitempty"`
	SenderID       string       `yaml:"sender_id,omitempty" json:"senderId,omitempty"`
	AlertID        string       `yaml:"alert_id,omitempty" json:"alertId,omitempty"`
}

// NotificationRequest is what producers hand to a notification sink.
type NotificationRequest struct {
	RecipientID string               `yaml:"recipient_id" json:"recipientId"`
	Title       string               `yaml:"title" json:"title"`
	Message     string               `yaml:"message" json:"message"`
	Type        NotificationType     `yaml:"type" json:"type"`
	ActionURL   string               `yaml:"action_url" json:"actionUrl"`
	Metadata    NotificationMetadata `yaml:"metadata" json:"metadata"`
}

// Notification is a stored, delivered notification.
type Notification struct {
	NotificationRequest `yaml:",inline"`
	ID                  string    `yaml:"id" json:"id"`
	CreatedAt           time.Time `yaml:"created_at" json:"createdAt"`
	Read                bool      `yaml:"read" json:"read"`
}
