package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/devsque/codegate/app/bot"
	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/projects"
	coreconfig "github.com/devsque/codegate/core/config"
)

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List published projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// keep stdout for the table
			quiet := func(*coreconfig.Config) error { return nil }
			store, closer, err := bot.OpenStore(cfg, quiet)
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			list, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("projects: %w", err)
			}
			links := channel.NewLinks(cfg.Telegram.BotUsername, cfg.Channel.Name)
			return printProjects(cmd.OutOrStdout(), list, links)
		},
	}
}

func printProjects(out io.Writer, list []projects.Record, links *channel.Links) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No projects found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAYLOAD\tPOST\tWATCH\tCREATED")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Payload,
			links.PostLink(r.ChannelPostID),
			r.WatchURL,
			r.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	return w.Flush()
}
