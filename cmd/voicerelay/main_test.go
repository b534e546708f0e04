package main

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal"
)

func TestNewVoiceRelayCommand(t *testing.T) {
	cmd := NewVoiceRelayCommand()

	require.NotNil(t, cmd)

	short := fmt.Sprintf("%s voicerelay - text to cloned voice over Telegram v%s", internal.Logo, internal.GetVersion())

	assert.Equal(t, "voicerelay", cmd.Use)
	assert.Equal(t, short, cmd.Short)
	assert.True(t, cmd.SilenceUsage)

	assert.True(t, cmd.HasSubCommands())
	assert.False(t, cmd.HasFlags())

	assert.Nil(t, cmd.Run)
	assert.Nil(t, cmd.RunE)

	allowedCommands := []string{
		"doctor",
		"serve",
		"version",
	}

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, len(allowedCommands))

	for _, subcmd := range subcommands {
		found := slices.Contains(allowedCommands, subcmd.Name())
		assert.True(t, found, "unexpected subcommand %q", subcmd.Name())

		assert.False(t, subcmd.Hidden)
	}
}
