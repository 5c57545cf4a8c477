// FilePath: internal/settings/store.go

// Package settings holds the process-wide monitoring configuration as a
// layered resolver: compiled defaults, then the stored settings row, then
// environment-supplied credential overrides. The store row is the source of
// truth when reachable; the in-memory copy is the fallback of record.
package settings

import (
	"context"
	"sync"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/notify"
	"github.com/verdelab/greenhub/internal/repository"
)

// Store is the single owner of MonitoringSettings for the process.
type Store struct {
	mu       sync.RWMutex
	repo     repository.SettingsRepository
	current  models.MonitoringSettings
	envToken string
	envChat  string
}

// NewStore creates a Store seeded with defaults. envToken and envChat come
// from process configuration; when non-empty they override stored values
// and are read-only through Update.
func NewStore(repo repository.SettingsRepository, envToken, envChat string) *Store {
	return &Store{
		repo:     repo,
		current:  models.DefaultMonitoringSettings(),
		envToken: envToken,
		envChat:  envChat,
	}
}

// Load refreshes the in-memory copy from the store. An unreachable store is
// logged and the current in-memory copy stays authoritative.
func (s *Store) Load(ctx context.Context) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		nuts.L.Warnf("[Settings] Store unreachable, keeping in-memory settings: %v", err)
		return
	}

	s.mu.Lock()
	s.current = *stored
	s.mu.Unlock()
}

// Current returns the effective settings with environment overrides applied.
func (s *Store) Current() models.MonitoringSettings {
	s.mu.RLock()
	settings := s.current
	s.mu.RUnlock()

	if s.envToken != "" {
		settings.TelegramBotToken = s.envToken
	}
	if s.envChat != "" {
		settings.TelegramChatID = s.envChat
	}
	return settings
}

// Update merges changes into the settings, persists them best-effort, and
// always updates the in-memory copy. Environment-pinned credential fields
// are not writable and keep their stored values.
func (s *Store) Update(ctx context.Context, apply func(*models.MonitoringSettings)) models.MonitoringSettings {
	s.mu.Lock()
	updated := s.current
	apply(&updated)
	if s.envToken != "" {
		updated.TelegramBotToken = s.current.TelegramBotToken
	}
	if s.envChat != "" {
		updated.TelegramChatID = s.current.TelegramChatID
	}
	updated.IntervalMinutes = clampInterval(updated.IntervalMinutes)
	s.current = updated
	s.mu.Unlock()

	if err := s.repo.Update(ctx, &updated); err != nil {
		nuts.L.Warnf("[Settings] Failed to persist settings, in-memory copy retained: %v", err)
	}

	return s.Current()
}

// TelegramCredentials implements notify.CredentialSource.
func (s *Store) TelegramCredentials() notify.Credentials {
	current := s.Current()
	return notify.Credentials{
		BotToken: current.TelegramBotToken,
		ChatID:   current.TelegramChatID,
	}
}

// EnvLocked reports which credential fields are pinned by the environment,
// so the API can mark them read-only.
func (s *Store) EnvLocked() (token bool, chat bool) {
	return s.envToken != "", s.envChat != ""
}

func clampInterval(minutes int) int {
	if minutes < 1 {
		return 1
	}
	if minutes > 60 {
		return 60
	}
	return minutes
}
