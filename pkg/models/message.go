package models

import "time"

// SenderType identifies which side of a conversation wrote a message.
type SenderType string

const (
	SenderClient   SenderType = "client"
	SenderVendor   SenderType = "vendor"
	SenderEmployee SenderType = "employee"
)

// IsExternal reports whether the sender is a client or vendor.
func (s SenderType) IsExternal() bool {
	return s == SenderClient || s == SenderVendor
}

// Participant is a member of a conversation.
type Participant struct {
	ID   string     `yaml:"id" json:"id"`
	Name string     `yaml:"name" json:"name"`
	Type SenderType `yaml:"type" json:"type"`
}

// Conversation groups messages between staff and a client or vendor.
type Conversation struct {
	ID            string        `yaml:"id" json:"id"`
	Subject       string        `yaml:"subject,omitempty" json:"subject,omitempty"`
	Participants  []Participant `yaml:"participants" json:"participants"`
	EntityID      string        `yaml:"entity_id" json:"entityId"`
	EntityType    EntityType    `yaml:"entity_type" json:"entityType"`
	LastMessageAt time.Time     `yaml:"last_message_at" json:"lastMessageAt"`
	UnreadCount   int           `yaml:"unread_count" json:"unreadCount"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Attachment is a file linked from a message.
type Attachment struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	MimeType string `yaml:"mime_type" json:"mimeType"`
	Size     int64  `yaml:"size" json:"size"`
}

// MessageTypeText is the only message type currently produced.
const MessageTypeText = "text"

// Message belongs to exactly one conversation.
type Message struct {
	ID             string       `yaml:"id" json:"id"`
	ConversationID string       `yaml:"conversation_id" json:"conversationId"`
	SenderID       string       `yaml:"sender_id" json:"senderId"`
	SenderName     string       `yaml:"sender_name" json:"senderName"`
	SenderType     SenderType   `yaml:"sender_type" json:"senderType"`
	Content        string       `yaml:"content" json:"content"`
	Type           string       `yaml:"type" json:"type"`
	Timestamp      time.Time    `yaml:"timestamp" json:"timestamp"`
	Attachments    []Attachment `yaml:"attachments" json:"attachments"`
	Read           bool         `yaml:"read" json:"read"`
	ReadAt         *time.Time   `yaml:"read_at,omitempty" json:"readAt,omitempty"`
}

// MessageInput carries the caller-supplied fields of a new message.
type MessageInput struct {
	ConversationID string       `json:"conversationId,omitempty"`
	SenderID       string       `json:"senderId,omitempty"`
	SenderName     string       `json:"senderName,omitempty"`
	SenderType     SenderType   `json:"senderType,omitempty"`
	Content        string       `json:"content,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}
