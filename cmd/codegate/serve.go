package main

import (
	"github.com/spf13/cobra"

	"github.com/devsque/codegate/app/bot"
	corecmd "github.com/devsque/codegate/core/cmd"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Long: `Runs the bot in webhook or long-polling mode, depending on telegram.run_mode.

The PostgreSQL store is migrated on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return corecmd.Run(cmd.Context(), corecmd.Options{
				ConfigPath:        path,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        bot.LoadConfig,
				Bootstrap:         bot.Bootstrap,
			})
		},
	}
}
