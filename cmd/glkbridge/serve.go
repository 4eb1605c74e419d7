package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/glkbridge/internal/version"
	"pkt.systems/glkbridge/sshserver"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var noBanner bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interpreter chats over SSH",
		RunE: func(cmd *cobra.Command, args []string) error {
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			if !noBanner && logMode != "json" && logMode != "structured" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Summary())
			}
			logger := pslog.Ctx(cmd.Context())
			rt, err := loadRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			sshCfg := sshserver.Config{
				Addr:               rt.cfg.SSH.Addr,
				HostKeyPath:        rt.cfg.SSH.HostKeyPath,
				IdlePrompt:         rt.cfg.SSH.IdlePrompt,
				AuthorizedKeysPath: rt.cfg.SSH.AuthorizedKeysPath,
			}
			if addr != "" {
				sshCfg.Addr = addr
			}
			server, err := sshserver.New(sshCfg, rt.sessionFactory())
			if err != nil {
				return err
			}
			if len(server.AuthorizedKeys) == 0 {
				logger.Warn("ssh open to anyone", "hint", "set ssh.authorized_keys_path to restrict logins")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := server.ListenAndServe(ctx); err != nil {
				return err
			}
			logger.Info("ssh server stopped", "sessions", rt.registry.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ssh.addr)")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	return cmd
}
