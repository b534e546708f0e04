package doctor

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/voicerelay/voicerelay/pkg/channels"
	"github.com/voicerelay/voicerelay/pkg/config"
	"github.com/voicerelay/voicerelay/pkg/doctor"
)

func NewDoctorCommand() *cobra.Command {
	var (
		envFile      string
		skipTelegram bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := doctor.Options{
				EnvFile: envFile,
				Out:     cmd.OutOrStdout(),
			}
			if !skipTelegram {
				opts.CheckToken = checkTelegramToken
			}

			d := doctor.NewDoctor(opts)
			d.Run(cmd.Context())
			if !d.IsHealthy() {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "e", "", "Load variables from this file instead of ./.env")
	cmd.Flags().BoolVar(&skipTelegram, "skip-telegram", false, "Do not call the Telegram API")

	return cmd
}

func checkTelegramToken(ctx context.Context, cfg *config.Config) (string, error) {
	bot, err := channels.NewTelegramBot(cfg.Token, cfg.Proxy)
	if err != nil {
		return "", err
	}
	me, err := bot.GetMe(ctx)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}
