package main

import (
	"bufio"
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pkt.systems/glkbridge/internal/logx"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

func newPlayCmd() *cobra.Command {
	var cfgPath string
	var sessionID string
	cmd := &cobra.Command{
		Use:   "play [story]",
		Short: "Play a story on the console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := loadRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			id := schema.SessionID(sessionID)
			if id == "" {
				id = schema.SessionID(uuid.NewString())
			}
			ctx = logx.ContextWithSessionLogger(ctx, pslog.Ctx(ctx).With("session", id), id)

			var story schema.StoryName
			if len(args) == 1 {
				story = schema.StoryName(args[0])
			}
			session, err := rt.newSession(id, cmd.OutOrStdout(), story)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Begin(ctx); err != nil {
				return ignoreCanceled(err)
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if err := session.Handle(ctx, scanner.Text()); err != nil {
					return ignoreCanceled(err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id used to name save files (default: random)")
	return cmd
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
