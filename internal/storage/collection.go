// Package storage persists whole record collections under fixed keys with a
// fallback when nothing usable is stored.
package storage

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Collection keys.
const (
	KeyLeads         = "stamped_leads"
	KeyClients       = "stamped_clients"
	KeyDocuments     = "stamped_documents"
	KeyConversations = "stamped_conversations"
	KeyMessages      = "stamped_messages"
	KeyNotifications = "stamped_notifications"
	KeyAssignments   = "stamped_assignments"
)

// CollectionStore gives each record kind a named slot in a Substrate. A
// store without a substrate keeps nothing: loads return the fallback and
// saves are no-ops.
type CollectionStore struct {
	sub    Substrate
	logger zerolog.Logger
}

// NewCollectionStore wraps sub. sub may be nil.
func NewCollectionStore(sub Substrate, logger zerolog.Logger) *CollectionStore {
	return &CollectionStore{sub: sub, logger: logger}
}

// Available reports whether the store has a substrate to write to.
func (s *CollectionStore) Available() bool {
	return s != nil && s.sub != nil
}

// Close releases the substrate when it holds an open resource such as a
// database connection. The store keeps nothing after Close.
func (s *CollectionStore) Close() error {
	if !s.Available() {
		return nil
	}
	sub := s.sub
	s.sub = nil
	if c, ok := sub.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Load returns the collection stored under key, or fallback if the key is
// missing, unreadable or cannot be decoded. It never fails.
func Load[T any](s *CollectionStore, key string, fallback []T) []T {
	if !s.Available() {
		return fallback
	}
	raw, ok, err := s.sub.Get(key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("collection read failed, using fallback")
		return fallback
	}
	if !ok {
		return fallback
	}
	var out []T
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("collection decode failed, using fallback")
		return fallback
	}
	if out == nil {
		return fallback
	}
	return out
}

// Save replaces the collection stored under key. It is a no-op without a
// substrate.
func Save[T any](s *CollectionStore, key string, collection []T) error {
	if !s.Available() {
		return nil
	}
	if collection == nil {
		collection = []T{}
	}
	data, err := yaml.Marshal(collection)
	if err != nil {
		return fmt.Errorf("saving %s: marshaling YAML: %w", key, err)
	}
	if err := s.sub.Set(key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
