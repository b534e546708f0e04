package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	var (
		debug   bool
		envFile string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the Telegram voice relay",
		Long: "Run the Telegram voice relay.\n\n" +
			"Configuration comes from the environment (and an optional .env file).\n" +
			"TRANSPORT selects polling, webhook or both.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, options{debug: debug, envFile: envFile})
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVarP(&envFile, "env-file", "e", "", "Load variables from this file instead of ./.env")

	return cmd
}
