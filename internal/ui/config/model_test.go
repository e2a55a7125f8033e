package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/model"
)

func baseConfig(t *testing.T) model.AppConfig {
	t.Helper()
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	return *cfg
}

func TestValidateAndSave_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var probed string
	probe := func(_ context.Context, baseURL string) error {
		probed = baseURL
		return nil
	}

	m := New(path, baseConfig(t), probe, keys.DefaultKeyMap(), 80, 20)
	cfg := baseConfig(t)
	cfg.API.BaseURL = "http://notify.internal/api/v1"
	cfg.Poll.IntervalSec = 45

	msg := m.validateAndSave(cfg)()
	m, cmd := m.Update(msg)

	assert.Equal(t, "http://notify.internal/api/v1", probed)
	assert.Equal(t, ModeValidateResult, m.Mode())
	require.NotNil(t, cmd)
	saved, ok := cmd().(ConfigSavedMsg)
	require.True(t, ok)
	assert.Equal(t, 45, saved.Config.Poll.IntervalSec)

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://notify.internal/api/v1", loaded.API.BaseURL)
	assert.Equal(t, 45, loaded.Poll.IntervalSec)
}

func TestValidateAndSave_ProbeFailureSkipsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	probe := func(context.Context, string) error { return errors.New("connection refused") }

	m := New(path, baseConfig(t), probe, keys.DefaultKeyMap(), 80, 20)
	m, cmd := m.Update(m.validateAndSave(baseConfig(t))())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeValidateResult, m.Mode())
	assert.Contains(t, m.View(), "connection refused")
	assert.NoFileExists(t, path)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeForm, m.Mode())
}

func TestConfig_BackClosesForm(t *testing.T) {
	m := New("unused.yaml", baseConfig(t), nil, keys.DefaultKeyMap(), 80, 20)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigDoneMsg{}, cmd())
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		interval string
		wantErr  bool
		wantURL  string
	}{
		{name: "trims trailing slash", baseURL: "http://x/api/v1/", interval: "10", wantURL: "http://x/api/v1"},
		{name: "non numeric interval", baseURL: "http://x", interval: "soon", wantErr: true},
		{name: "zero interval", baseURL: "http://x", interval: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("unused.yaml", baseConfig(t), nil, keys.DefaultKeyMap(), 80, 20)
			m.values.baseURL = tt.baseURL
			m.values.interval = tt.interval

			cfg, err := m.candidate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, cfg.API.BaseURL)
		})
	}
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8086/api/v1"))
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("localhost"))
	assert.NoError(t, validateInterval("30"))
	assert.Error(t, validateInterval("-1"))
}
