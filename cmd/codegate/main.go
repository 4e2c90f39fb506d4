package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devsque/codegate/core/buildinfo"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "codegate",
		Short:         "Telegram bot that hands out project source code to channel members",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringP("config", "c", "", "path to config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newProjectsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codegate %s\n", buildinfo.String())
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
