package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// ConversationStore is the ordered turn log backed by one key-value slot.
//
// Append only touches memory; Persist writes the whole log. Callers decide
// when a log is durable (the orchestrator persists once per exchange).
type ConversationStore struct {
	mu     sync.RWMutex
	kv     ports.KeyValueStore
	key    string
	turns  []Turn
	logger zerolog.Logger
}

// NewConversationStore creates an empty store over kv. Call Load to restore.
func NewConversationStore(kv ports.KeyValueStore, key string, logger zerolog.Logger) *ConversationStore {
	return &ConversationStore{
		kv:     kv,
		key:    key,
		logger: logger.With().Str("component", "conversation_store").Logger(),
	}
}

// Load replaces the in-memory log with the persisted snapshot. A missing
// slot yields an empty log. An unreadable snapshot is logged and also
// yields an empty log; only backend failures are returned.
func (s *ConversationStore) Load(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read history slot %s: %w", s.key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.turns = nil
		return nil
	}

	turns, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("Failed to restore conversation, starting empty")
		s.turns = nil
		return nil
	}

	s.turns = turns
	s.logger.Debug().Int("turns", len(turns)).Msg("Conversation restored")
	return nil
}

// Append adds turn to the end of the log.
func (s *ConversationStore) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Persist writes the current log to the history slot.
func (s *ConversationStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	data, err := EncodeSnapshot(s.turns)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist history slot %s: %w", s.key, err)
	}
	return nil
}

// RecentWindow returns a copy of the last n turns in log order.
func (s *ConversationStore) RecentWindow(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	start := max(len(s.turns)-n, 0)

	window := make([]Turn, len(s.turns)-start)
	copy(window, s.turns[start:])
	return window
}

// Turns returns a copy of the full log.
func (s *ConversationStore) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear removes the persisted snapshot and then empties the log. When the
// removal fails the log is left as it was.
func (s *ConversationStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to remove history slot %s: %w", s.key, err)
	}
	s.turns = nil
	return nil
}

// ExportSnapshot renders the full log without changing it.
func (s *ConversationStore) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return EncodeSnapshot(s.turns)
}

// ImportSnapshot replaces the log with data and persists it. Invalid data
// leaves the log untouched, and so does a failed write.
func (s *ConversationStore) ImportSnapshot(ctx context.Context, data []byte) error {
	turns, err := DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("invalid conversation snapshot: %w", err)
	}

	encoded, err := EncodeSnapshot(turns)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, s.key, encoded); err != nil {
		return fmt.Errorf("failed to persist history slot %s: %w", s.key, err)
	}
	s.turns = turns
	return nil
}
