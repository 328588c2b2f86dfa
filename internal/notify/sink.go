// Package notify delivers staff notifications raised by repository
// operations: a persisted in-app inbox, a Slack webhook, or both.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

// ErrNotificationNotFound is returned by MarkAsRead for unknown ids.
var ErrNotificationNotFound = errors.New("notification not found")

// Sink accepts notification requests.
type Sink interface {
	AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error)
}

// Inbox is a Sink that keeps notifications for later display.
type Inbox struct {
	mu     sync.Mutex
	items  []models.Notification
	store  *storage.CollectionStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewInbox creates an inbox, restoring previously stored notifications from
// store when available. store may be nil.
func NewInbox(store *storage.CollectionStore, now func() time.Time, logger zerolog.Logger) *Inbox {
	if now == nil {
		now = time.Now
	}
	return &Inbox{
		items:  storage.Load(store, storage.KeyNotifications, []models.Notification{}),
		store:  store,
		now:    now,
		logger: logger,
	}
}

// AddNotification stores req as a new unread notification.
func (in *Inbox) AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = models.NotificationInfo
	}
	n := models.Notification{
		NotificationRequest: req,
		ID:                  "notif-" + uuid.NewString(),
		CreatedAt:           in.now().UTC(),
	}

	in.mu.Lock()
	in.items = append(in.items, n)
	snapshot := append([]models.Notification(nil), in.items...)
	in.mu.Unlock()

	in.persist(snapshot)
	in.logger.Debug().Str("notification_id", n.ID).Str("recipient", req.RecipientID).Msg("notification stored")
	return &n, nil
}

// List returns the recipient's notifications, newest first. An empty
// recipientID lists everything.
func (in *Inbox) List(recipientID string) []models.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := []models.Notification{}
	for _, n := range in.items {
		if recipientID == "" || n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MarkAsRead flags a notification as read.
func (in *Inbox) MarkAsRead(id string) error {
	in.mu.Lock()
	found := false
	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
			found = true
			break
		}
	}
	snapshot := append([]models.Notification(nil), in.items...)
	in.mu.Unlock()

	if !found {
		return fmt.Errorf("marking %s read: %w", id, ErrNotificationNotFound)
	}
	in.persist(snapshot)
	return nil
}

// UnreadCount returns how many of the recipient's notifications are unread.
func (in *Inbox) UnreadCount(recipientID string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, item := range in.items {
		if item.RecipientID == recipientID && !item.Read {
			n++
		}
	}
	return n
}

func (in *Inbox) persist(snapshot []models.Notification) {
	if err := storage.Save(in.store, storage.KeyNotifications, snapshot); err != nil {
		in.logger.Warn().Err(err).Msg("persisting notifications failed")
	}
}

type fanout struct {
	sinks []Sink
}

// Fanout returns a Sink that delivers to every non-nil sink in order. The
// first sink's notification is returned; errors from all sinks are joined.
func Fanout(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &fanout{sinks: live}
}

func (f *fanout) AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error) {
	var (
		first *models.Notification
		errs  []error
	)
	for _, s := range f.sinks {
		n, err := s.AddNotification(ctx, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first == nil {
			first = n
		}
	}
	return first, errors.Join(errs...)
}
