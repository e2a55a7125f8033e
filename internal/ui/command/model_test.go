package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    CommandMsg
		wantErr bool
	}{
		{line: "read-all", want: CommandMsg{Name: CmdReadAll, Args: []string{}}},
		{line: "  ra ", want: CommandMsg{Name: CmdReadAll, Args: []string{}}},
		{line: "filter unread", want: CommandMsg{Name: CmdFilter, Args: []string{"unread"}}},
		{line: "OPEN n-1", want: CommandMsg{Name: CmdOpen, Args: []string{"n-1"}}},
		{line: "q", want: CommandMsg{Name: CmdQuit, Args: []string{}}},
		{line: "", wantErr: true},
		{line: "delete everything", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func typeLine(m Model, line string) Model {
	m.Focus()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
	return m
}

func TestCommand_Enter(t *testing.T) {
	m := typeLine(New(60, 10), "refresh")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: CmdRefresh, Args: []string{}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestCommand_UnknownKeepsInput(t *testing.T) {
	m := typeLine(New(60, 10), "nope")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "nope", m.input.Value())
	assert.Contains(t, m.View(), `unknown command "nope"`)
}

func TestCommand_Esc(t *testing.T) {
	m := typeLine(New(60, 10), "read")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelledMsg{}, cmd())
	assert.Empty(t, m.input.Value())
}
