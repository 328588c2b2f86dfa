package core

import (
	"context"
	"fmt"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

// previewLength is the number of characters of a message quoted in its
// notification.
const previewLength = 100

func cloneConversation(c models.Conversation) models.Conversation {
	out := c
	out.Participants = append([]models.Participant(nil), c.Participants...)
	return out
}

func cloneMessage(m models.Message) models.Message {
	out := m
	out.Attachments = append([]models.Attachment(nil), m.Attachments...)
	if m.ReadAt != nil {
		v := *m.ReadAt
		out.ReadAt = &v
	}
	return out
}

// GetConversations returns the conversations userID takes part in, or all
// conversations when userID is empty.
func (r *repository) GetConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range r.conversations {
		if userID == "" || c.HasParticipant(userID) {
			out = append(out, cloneConversation(c))
		}
	}
	return out, nil
}

func (r *repository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.conversationIndexLocked(id); i >= 0 {
		c := cloneConversation(r.conversations[i])
		return &c, nil
	}
	return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
}

func (r *repository) GetMessagesByConversationID(ctx context.Context, conversationID string) ([]models.Message, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messagesLocked(conversationID), nil
}

// SendMessage appends an unread text message to an existing conversation.
// Messages from clients or vendors notify the officer assigned to the
// conversation's entity; a failed notification does not fail the send.
func (r *repository) SendMessage(ctx context.Context, in models.MessageInput) (*models.Message, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("sending message: conversation id is required: %w", ErrValidation)
	}
	if err := r.latency.Wait(ctx, latency.Message); err != nil {
		return nil, err
	}
	msg := models.Message{
		ID:             r.newID("msg"),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		SenderName:     in.SenderName,
		SenderType:     orDefault(in.SenderType, models.SenderClient),
		Content:        in.Content,
		Type:           models.MessageTypeText,
		Timestamp:      r.now().UTC(),
		Attachments:    in.Attachments,
		Read:           false,
	}
	if msg.Attachments == nil {
		msg.Attachments = []models.Attachment{}
	}

	r.mu.Lock()
	ci := r.conversationIndexLocked(in.ConversationID)
	if ci < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("sending message: conversation %s: %w", in.ConversationID, ErrNotFound)
	}
	r.messages = append(r.messages, msg)
	r.conversations[ci].LastMessageAt = msg.Timestamp
	r.recountUnreadLocked(in.ConversationID)
	conv := cloneConversation(r.conversations[ci])
	persist(r, storage.KeyMessages, r.messages)
	persist(r, storage.KeyConversations, r.conversations)
	thread := r.messagesLocked(in.ConversationID)
	r.mu.Unlock()

	r.bus.Publish(realtime.MessageSentPayload{
		MessageID:      msg.ID,
		Message:        cloneMessage(msg),
		ConversationID: msg.ConversationID,
		Messages:       thread,
	})

	if msg.SenderType.IsExternal() {
		entityID, entityType := owningEntity(conv, msg)
		r.notifyOfficer(ctx, entityID, entityType, models.NotificationRequest{
			Title:     "New Message from " + msg.SenderName,
			Message:   Preview(msg.Content),
			Type:      models.NotificationInfo,
			ActionURL: "/compliance/messages/" + msg.ConversationID,
			Metadata: models.NotificationMetadata{
				MessageID:      msg.ID,
				ConversationID: msg.ConversationID,
				SenderID:       msg.SenderID,
			},
		})
	}

	r.logger.Debug().Str("message_id", msg.ID).Str("conversation_id", msg.ConversationID).Msg("message sent")
	out := cloneMessage(msg)
	return &out, nil
}

// owningEntity returns the client or vendor a conversation belongs to. Older
// conversations without an entity fall back to the sender.
func owningEntity(conv models.Conversation, msg models.Message) (string, models.EntityType) {
	if conv.EntityID != "" {
		typ := conv.EntityType
		if typ == "" {
			typ = models.EntityClient
		}
		return conv.EntityID, typ
	}
	if msg.SenderType == models.SenderVendor {
		return msg.SenderID, models.EntityVendor
	}
	return msg.SenderID, models.EntityClient
}

// Preview shortens content to its first 100 characters, marking the cut
// with "...".
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

func (r *repository) MarkMessageAsRead(ctx context.Context, messageID string) (*models.Message, error) {
	if err := r.latency.Wait(ctx, latency.Quick); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID != messageID {
			continue
		}
		if !r.messages[i].Read {
			readAt := r.now().UTC()
			r.messages[i].Read = true
			r.messages[i].ReadAt = &readAt
			r.recountUnreadLocked(r.messages[i].ConversationID)
			persist(r, storage.KeyMessages, r.messages)
			persist(r, storage.KeyConversations, r.conversations)
		}
		m := cloneMessage(r.messages[i])
		return &m, nil
	}
	return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
}

func (r *repository) MarkConversationAsRead(ctx context.Context, conversationID string) error {
	if err := r.latency.Wait(ctx, latency.Quick); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conversationIndexLocked(conversationID) < 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	readAt := r.now().UTC()
	changed := false
	for i := range r.messages {
		if r.messages[i].ConversationID == conversationID && !r.messages[i].Read {
			at := readAt
			r.messages[i].Read = true
			r.messages[i].ReadAt = &at
			changed = true
		}
	}
	r.recountUnreadLocked(conversationID)
	if changed {
		persist(r, storage.KeyMessages, r.messages)
		persist(r, storage.KeyConversations, r.conversations)
	}
	return nil
}

// GetUnreadMessageCount sums the unread counts of userID's conversations.
func (r *repository) GetUnreadMessageCount(ctx context.Context, userID string) (int, error) {
	if err := r.latency.Wait(ctx, latency.Quick); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			total += c.UnreadCount
		}
	}
	return total, nil
}

func (r *repository) messagesLocked(conversationID string) []models.Message {
	out := []models.Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, cloneMessage(m))
		}
	}
	return out
}

// recountUnreadLocked derives a conversation's unread count from the read
// flags of its messages.
func (r *repository) recountUnreadLocked(conversationID string) {
	i := r.conversationIndexLocked(conversationID)
	if i < 0 {
		return
	}
	n := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && !m.Read {
			n++
		}
	}
	r.conversations[i].UnreadCount = n
}

func (r *repository) conversationIndexLocked(id string) int {
	for i := range r.conversations {
		if r.conversations[i].ID == id {
			return i
		}
	}
	return -1
}
