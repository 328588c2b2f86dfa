package realtime

import "github.com/stampedhq/onboard/pkg/models"

// EventType is one of the closed set of bus channels.
type EventType string

const (
	DocumentUploaded      EventType = "document:uploaded"
	DocumentStatusChanged EventType = "document:status_changed"
	MessageSent           EventType = "message:sent"
	DataUpdated           EventType = "data:updated"
)

// EventTypes lists every channel.
var EventTypes = []EventType{DocumentUploaded, DocumentStatusChanged, MessageSent, DataUpdated}

// Payload is the sealed set of event bodies. Only types in this package
// implement it.
type Payload interface {
	payloadType() EventType
}

// DocumentUploadedPayload is emitted after a document upload.
type DocumentUploadedPayload struct {
	DocumentID string            `json:"documentId"`
	Document   models.Document   `json:"document"`
	EntityID   string            `json:"entityId"`
	EntityType models.EntityType `json:"entityType"`
	// Documents is the owning entity's full document list after the upload.
	Documents []models.Document `json:"documents,omitempty"`
}

func (DocumentUploadedPayload) payloadType() EventType { return DocumentUploaded }

// DocumentStatusChangedPayload is emitted after a review decision.
type DocumentStatusChangedPayload struct {
	DocumentID     string                `json:"documentId"`
	Document       models.Document       `json:"document"`
	PreviousStatus models.DocumentStatus `json:"previousStatus"`
	EntityID       string                `json:"entityId"`
	EntityType     models.EntityType     `json:"entityType"`
	Documents      []models.Document     `json:"documents,omitempty"`
}

func (DocumentStatusChangedPayload) payloadType() EventType { return DocumentStatusChanged }

// MessageSentPayload is emitted after a message is stored.
type MessageSentPayload struct {
	MessageID      string         `json:"messageId"`
	Message        models.Message `json:"message"`
	ConversationID string         `json:"conversationId"`
	// Messages is the conversation's full message list after the send.
	Messages []models.Message `json:"messages,omitempty"`
}

func (MessageSentPayload) payloadType() EventType { return MessageSent }

// DataUpdatedPayload signals that a persisted collection changed.
type DataUpdatedPayload struct {
	Collection string `json:"collection"`
	RecordID   string `json:"recordId"`
	Action     string `json:"action"` // created, updated
}

func (DataUpdatedPayload) payloadType() EventType { return DataUpdated }
