package main

import (
	"github.com/spf13/cobra"

	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/daemon"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler daemon with the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			digest, err := config.Digest(path)
			if err != nil {
				return err
			}

			d, err := daemon.New(cfg, logger, daemon.Options{
				Version:      version,
				ConfigDigest: digest,
			})
			if err != nil {
				return err
			}

			return d.Run(cmd.Context())
		},
	}
}
