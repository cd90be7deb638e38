package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/scrumroll/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively write a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = defaultConfigPath()
			}
			force, _ := cmd.Flags().GetBool("force")

			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			cfg := config.Default()
			untouched := true

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Notion integration token").
						Description("Literal token, or an env reference like ${NOTION_TOKEN}").
						Value(&cfg.Notion.Token).
						Validate(required("token")),
					huh.NewInput().
						Title("Daily entries database").
						Description("Database ID or exact title").
						Value(&cfg.Databases.Entries).
						Validate(required("entries database")),
					huh.NewInput().
						Title("Projects database").
						Description("Database ID or exact title").
						Value(&cfg.Databases.Projects).
						Validate(required("projects database")),
					huh.NewInput().
						Title("Aggregates database").
						Description("Database ID or exact title").
						Value(&cfg.Databases.Aggregates).
						Validate(required("aggregates database")),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("Timezone").
						Description("IANA name like Europe/Paris; empty uses the system zone").
						Value(&cfg.Timezone),
					huh.NewInput().
						Title("Aggregate schedule").
						Description("Five-field cron expression").
						Value(&cfg.Aggregate.Schedule),
					huh.NewInput().
						Title("Prune schedule").
						Description("Five-field cron expression").
						Value(&cfg.Prune.Schedule),
					huh.NewConfirm().
						Title("Prune entries never edited after creation?").
						Value(&untouched),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			if !untouched {
				cfg.Prune.Untouched = &untouched
			}

			if err := config.Validate(cfg); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}

			fmt.Printf("Configuration written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Destination path (default: the standard config location)")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
