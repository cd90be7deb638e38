package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts the same 5-field cron expressions the scheduler
// runs with.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks the structural validity of a Config.
// It verifies the version field, the API token, the database references,
// the timezone, the cron schedules, and the gateway and telemetry
// addresses. All problems are reported at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Notion.Token == "" {
		errs = append(errs, errors.New("config: notion.token is required"))
	}

	errs = append(errs, validateDatabases(cfg.Databases)...)

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("config: unknown timezone %q: %w", cfg.Timezone, err))
		}
	}

	if cfg.Aggregate.Schedule != "" {
		if _, err := scheduleParser.Parse(cfg.Aggregate.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid aggregate.schedule %q: %w", cfg.Aggregate.Schedule, err))
		}
	}
	if cfg.Prune.Schedule != "" {
		if _, err := scheduleParser.Parse(cfg.Prune.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid prune.schedule %q: %w", cfg.Prune.Schedule, err))
		}
	}

	if cfg.Prune.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("config: prune.max_age_days must be non-negative, got %d", cfg.Prune.MaxAgeDays))
	}

	if cfg.Gateway.Listen != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Listen); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid gateway.listen address %q", cfg.Gateway.Listen))
		}
	}

	if cfg.Telemetry.OTLPEndpoint != "" {
		u, err := url.Parse(cfg.Telemetry.OTLPEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("config: telemetry.otlp_endpoint %q is not an http(s) URL", cfg.Telemetry.OTLPEndpoint))
		}
	}

	return errors.Join(errs...)
}

func validateDatabases(dbs DatabasesConfig) []error {
	var errs []error
	if dbs.Entries == "" {
		errs = append(errs, errors.New("config: databases.entries is required"))
	}
	if dbs.Projects == "" {
		errs = append(errs, errors.New("config: databases.projects is required"))
	}
	if dbs.Aggregates == "" {
		errs = append(errs, errors.New("config: databases.aggregates is required"))
	}
	return errs
}
