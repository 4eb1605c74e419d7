package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/glkbridge/internal/appconfig"
	"pkt.systems/pslog"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("config wrote", "path", written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "output path (default ~/.glkbridge/config.yaml)")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and list stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer rt.close()
			out := cmd.OutOrStdout()
			for _, interpreter := range rt.cfg.Interpreters {
				_, _ = fmt.Fprintf(out, "interpreter %s: %s (%s)\n", interpreter.Name, interpreter.Binary, interpreter.Protocol)
			}
			for _, story := range rt.stories {
				_, _ = fmt.Fprintf(out, "story %s: %s on %s\n", story.Name, story.File, story.Interpreter)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "path to config file")
	return cmd
}
