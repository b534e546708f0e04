// voicerelay - Telegram bot that answers text with a cloned-voice reply.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal"
	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal/doctor"
	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal/serve"
	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal/version"
)

func NewVoiceRelayCommand() *cobra.Command {
	short := fmt.Sprintf("%s voicerelay - text to cloned voice over Telegram v%s", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:           "voicerelay",
		Short:         short,
		Example:       "voicerelay serve --env-file .env",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		doctor.NewDoctorCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewVoiceRelayCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
