package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/daemon"
)

// program adapts the daemon to the service manager's start/stop contract.
// Start must not block; the daemon serves in the background.
type program struct {
	cmd    *cobra.Command
	daemon *daemon.Daemon
}

func (p *program) Start(_ service.Service) error {
	cfg, path, err := loadConfig(p.cmd)
	if err != nil {
		return err
	}
	logger := newLogger(p.cmd, cfg)

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
	if err := d.Start(context.Background()); err != nil {
		return err
	}

	p.daemon = d
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.daemon != nil {
		p.daemon.Stop()
	}
	return nil
}

func serviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "service [install|uninstall|start|stop|run]",
		Short:     "Manage the daemon as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svcConfig := &service.Config{
				Name:        "scrumroll",
				DisplayName: "scrumroll",
				Description: "Notion daily-entry aggregation and pruning daemon",
				Arguments:   []string{"service", "run"},
			}
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", path)
			}

			svc, err := service.New(&program{cmd: cmd}, svcConfig)
			if err != nil {
				return err
			}

			switch args[0] {
			case "install":
				if err := svc.Install(); err != nil {
					return err
				}
				fmt.Println("service installed")
			case "uninstall":
				if err := svc.Uninstall(); err != nil {
					return err
				}
				fmt.Println("service uninstalled")
			case "start":
				if err := svc.Start(); err != nil {
					return err
				}
				fmt.Println("service started")
			case "stop":
				if err := svc.Stop(); err != nil {
					return err
				}
				fmt.Println("service stopped")
			case "run":
				return svc.Run()
			}
			return nil
		},
	}
}
