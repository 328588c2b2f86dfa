// Package core contains the onboarding business logic: the lead, client,
// document and messaging repository, its statistics, and configuration.
package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	// ErrNotFound is returned by targeted lookups and updates on unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a status or stage change is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation is returned for inputs that would break a record invariant.
	ErrValidation = errors.New("validation failed")
)

// OfficerResolver finds the compliance officer responsible for an entity.
// This interface is defined locally in core to avoid importing assignment.
type OfficerResolver interface {
	GetAssignedOfficer(ctx context.Context, entityID string, entityType models.EntityType) (*models.Employee, error)
}

// NotificationSink accepts staff notifications.
// This interface is defined locally in core to avoid importing notify.
type NotificationSink interface {
	AddNotification(ctx context.Context, req models.NotificationRequest) (*models.Notification, error)
}

// LeadRepository holds lead queries and commands.
type LeadRepository interface {
	GetLeads(ctx context.Context) ([]models.Lead, error)
	GetLeadByID(ctx context.Context, id string) (*models.Lead, error)
	GetLeadsByStage(ctx context.Context, stage models.PipelineStage) ([]models.Lead, error)
	GetLeadsByAssignee(ctx context.Context, assigneeID string) ([]models.Lead, error)
	SearchLeads(ctx context.Context, query string) ([]models.Lead, error)
	FilterLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, error)
	CreateLead(ctx context.Context, in models.LeadInput) (*models.Lead, error)
	UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error)
	AddLeadActivity(ctx context.Context, id string, activity models.LeadActivity) (*models.Lead, error)
}

// ClientRepository holds client queries and commands.
type ClientRepository interface {
	GetClients(ctx context.Context) ([]models.Client, error)
	GetClientByID(ctx context.Context, id string) (*models.Client, error)
	GetClientsByLifecycleStage(ctx context.Context, stage models.LifecycleStage) ([]models.Client, error)
	GetClientsByStatus(ctx context.Context, status models.ClientStatus) ([]models.Client, error)
	CreateClient(ctx context.Context, in models.ClientInput) (*models.Client, error)
	TransitionClientLifecycle(ctx context.Context, id string, stage models.LifecycleStage, notes string) (*models.Client, error)
}

// DocumentRepository holds document queries and review commands.
type DocumentRepository interface {
	GetDocuments(ctx context.Context) ([]models.Document, error)
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	GetDocumentsByClientID(ctx context.Context, clientID string) ([]models.Document, error)
	GetDocumentsByStatus(ctx context.Context, status models.DocumentStatus) ([]models.Document, error)
	UploadDocument(ctx context.Context, in models.DocumentInput) (*models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, review models.ReviewInput) (*models.Document, error)
}

// MessageRepository holds conversation queries and messaging commands.
type MessageRepository interface {
	GetConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	GetMessagesByConversationID(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, in models.MessageInput) (*models.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID string) (*models.Message, error)
	MarkConversationAsRead(ctx context.Context, conversationID string) error
	GetUnreadMessageCount(ctx context.Context, userID string) (int, error)
}

// StatisticsRepository aggregates the current collections.
type StatisticsRepository interface {
	GetLeadStatistics(ctx context.Context) (*models.LeadStatistics, error)
	GetDocumentStatistics(ctx context.Context) (*models.DocumentStatistics, error)
}

// Repository is the full onboarding data service. Every operation waits on
// the configured latency simulator before touching data, and mutations run
// in the order mutate, persist, emit, notify.
type Repository interface {
	LeadRepository
	ClientRepository
	DocumentRepository
	MessageRepository
	StatisticsRepository
}

// RepositoryDeps wires a Repository. Store, Officers and Sink may be nil:
// without a store nothing outlives the process, and without an officer
// resolver or sink no notifications are raised. A nil Bus gets a private
// bus; nil Latency means no delay.
type RepositoryDeps struct {
	Store    *storage.CollectionStore
	Bus      *realtime.Bus
	Officers OfficerResolver
	Sink     NotificationSink
	Latency  latency.Simulator
	Clock    func() time.Time
	// IDs returns a fresh identifier with the given prefix, such as "lead".
	IDs      func(prefix string) string
	Fixtures *Fixtures
	Logger   zerolog.Logger
}

type repository struct {
	mu sync.Mutex

	store    *storage.CollectionStore
	bus      *realtime.Bus
	officers OfficerResolver
	sink     NotificationSink
	latency  latency.Simulator
	now      func() time.Time
	newID    func(prefix string) string
	logger   zerolog.Logger

	leads         []models.Lead
	clients       []models.Client
	documents     []models.Document
	conversations []models.Conversation
	messages      []models.Message
}

// NewRepository creates a Repository. Each collection is loaded from the
// store, falling back to a fresh copy of the fixtures.
func NewRepository(deps RepositoryDeps) Repository {
	r := &repository{
		store:    deps.Store,
		bus:      deps.Bus,
		officers: deps.Officers,
		sink:     deps.Sink,
		latency:  deps.Latency,
		now:      deps.Clock,
		newID:    deps.IDs,
		logger:   deps.Logger,
	}
	if r.bus == nil {
		r.bus = realtime.NewBus(realtime.WithLogger(deps.Logger))
	}
	if r.latency == nil {
		r.latency = latency.None()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = NewID
	}

	fx := deps.Fixtures
	if fx == nil {
		fx = DefaultFixtures()
	}
	r.leads = storage.Load(r.store, storage.KeyLeads, fx.Leads)
	r.clients = storage.Load(r.store, storage.KeyClients, fx.Clients)
	r.documents = storage.Load(r.store, storage.KeyDocuments, fx.Documents)
	r.conversations = storage.Load(r.store, storage.KeyConversations, fx.Conversations)
	r.messages = storage.Load(r.store, storage.KeyMessages, fx.Messages)
	for i := range r.conversations {
		r.recountUnreadLocked(r.conversations[i].ID)
	}
	return r
}

// NewID returns prefix-<uuid>.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// persist saves one collection. Persistence faults are logged and never
// reach the caller; the in-memory collection stays authoritative.
func persist[T any](r *repository, key string, collection []T) {
	if err := storage.Save(r.store, key, collection); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("persisting collection failed")
	}
}

// notifyOfficer raises req for the officer responsible for the entity.
// Lookup and delivery failures are logged, never returned.
func (r *repository) notifyOfficer(ctx context.Context, entityID string, entityType models.EntityType, req models.NotificationRequest) {
	if r.officers == nil || r.sink == nil {
		return
	}
	officer, err := r.officers.GetAssignedOfficer(ctx, entityID, entityType)
	if err != nil {
		r.logger.Debug().Err(err).Str("entity_id", entityID).Msg("no officer to notify")
		return
	}
	req.RecipientID = officer.ID
	if _, err := r.sink.AddNotification(ctx, req); err != nil {
		r.logger.Error().Err(err).
			Str("entity_id", entityID).
			Str("officer_id", officer.ID).
			Str("title", req.Title).
			Msg("failed to send notification")
	}
}

func (r *repository) emitDataUpdated(collection, recordID, action string) {
	r.bus.Publish(realtime.DataUpdatedPayload{Collection: collection, RecordID: recordID, Action: action})
}
