// FilePath: internal/settings/store_test.go
package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/verdelab/greenhub/internal/models"
)

// fakeSettingsRepo implements repository.SettingsRepository in memory.
type fakeSettingsRepo struct {
	stored    *models.MonitoringSettings
	getErr    error
	updateErr error
	updates   int
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*models.MonitoringSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.stored
	return &copied, nil
}

func (f *fakeSettingsRepo) Update(ctx context.Context, settings *models.MonitoringSettings) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *settings
	f.stored = &copied
	return nil
}

func TestCurrentStartsWithDefaults(t *testing.T) {
	s := NewStore(&fakeSettingsRepo{}, "", "")

	got := s.Current()
	want := models.DefaultMonitoringSettings()
	if got != want {
		t.Fatalf("Current() = %+v, want defaults %+v", got, want)
	}
}

func TestLoadRefreshesFromRepo(t *testing.T) {
	stored := models.DefaultMonitoringSettings()
	stored.Enabled = true
	stored.IntervalMinutes = 5
	repo := &fakeSettingsRepo{stored: &stored}

	s := NewStore(repo, "", "")
	s.Load(context.Background())

	got := s.Current()
	if !got.Enabled || got.IntervalMinutes != 5 {
		t.Fatalf("Current() = %+v, want loaded settings", got)
	}
}

func TestLoadKeepsMemoryOnRepoError(t *testing.T) {
	repo := &fakeSettingsRepo{getErr: errors.New("connection refused")}
	s := NewStore(repo, "", "")

	s.Load(context.Background())

	if got := s.Current(); got != models.DefaultMonitoringSettings() {
		t.Fatalf("Current() = %+v, want defaults retained", got)
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	stored := models.DefaultMonitoringSettings()
	stored.TelegramBotToken = "stored-token"
	stored.TelegramChatID = "stored-chat"
	repo := &fakeSettingsRepo{stored: &stored}

	s := NewStore(repo, "env-token", "")
	s.Load(context.Background())

	got := s.Current()
	if got.TelegramBotToken != "env-token" {
		t.Errorf("token = %q, want env override", got.TelegramBotToken)
	}
	if got.TelegramChatID != "stored-chat" {
		t.Errorf("chat = %q, want stored value", got.TelegramChatID)
	}
}

func TestUpdateBlocksEnvPinnedCredentials(t *testing.T) {
	repo := &fakeSettingsRepo{}
	s := NewStore(repo, "env-token", "env-chat")

	got := s.Update(context.Background(), func(m *models.MonitoringSettings) {
		m.TelegramBotToken = "attacker-token"
		m.TelegramChatID = "attacker-chat"
	})

	if got.TelegramBotToken != "env-token" || got.TelegramChatID != "env-chat" {
		t.Fatalf("env-pinned credentials were overwritten: %+v", got)
	}
}

func TestUpdateClampsInterval(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1},
		{-5, 1},
		{10, 10},
		{60, 60},
		{1000, 60},
	}

	for _, tt := range tests {
		s := NewStore(&fakeSettingsRepo{}, "", "")
		got := s.Update(context.Background(), func(m *models.MonitoringSettings) {
			m.IntervalMinutes = tt.in
		})
		if got.IntervalMinutes != tt.want {
			t.Errorf("interval %d clamped to %d, want %d", tt.in, got.IntervalMinutes, tt.want)
		}
	}
}

func TestUpdatePersistsToRepo(t *testing.T) {
	repo := &fakeSettingsRepo{}
	s := NewStore(repo, "", "")

	s.Update(context.Background(), func(m *models.MonitoringSettings) {
		m.Enabled = true
	})

	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}
	if repo.stored == nil || !repo.stored.Enabled {
		t.Fatal("enabled flag not persisted")
	}
}

func TestUpdateKeepsMemoryOnRepoError(t *testing.T) {
	repo := &fakeSettingsRepo{updateErr: errors.New("read-only replica")}
	s := NewStore(repo, "", "")

	got := s.Update(context.Background(), func(m *models.MonitoringSettings) {
		m.Enabled = true
	})

	if !got.Enabled {
		t.Fatal("in-memory copy must reflect the update despite repo failure")
	}
	if !s.Current().Enabled {
		t.Fatal("Current() must reflect the update despite repo failure")
	}
}

func TestTelegramCredentials(t *testing.T) {
	s := NewStore(&fakeSettingsRepo{}, "tok", "chat")

	creds := s.TelegramCredentials()
	if creds.BotToken != "tok" || creds.ChatID != "chat" {
		t.Fatalf("credentials = %+v", creds)
	}
}

func TestEnvLocked(t *testing.T) {
	s := NewStore(&fakeSettingsRepo{}, "tok", "")
	token, chat := s.EnvLocked()
	if !token || chat {
		t.Fatalf("EnvLocked() = %v, %v, want true, false", token, chat)
	}
}
