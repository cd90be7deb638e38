// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for scrumroll.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Notion holds API connection settings.
	Notion NotionConfig `yaml:"notion"`

	// Databases references the three workspace databases, each by ID or
	// exact title.
	Databases DatabasesConfig `yaml:"databases"`

	// Timezone is an IANA zone name driving all calendar-date arithmetic
	// (target dates, date mentions, pruning cutoffs). Empty means the
	// process-local zone.
	Timezone string `yaml:"timezone,omitempty"`

	// Aggregate configures the mention aggregator job.
	Aggregate AggregateConfig `yaml:"aggregate,omitempty"`

	// Prune configures the stale entry pruner job.
	Prune PruneConfig `yaml:"prune,omitempty"`

	// Journal configures the run history store.
	Journal JournalConfig `yaml:"journal,omitempty"`

	// Gateway configures the daemon HTTP endpoint.
	Gateway GatewayConfig `yaml:"gateway,omitempty"`

	// Telemetry configures optional OTLP trace export.
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// NotionConfig holds API connection settings. Token is typically written as
// ${NOTION_TOKEN} and expanded from the environment at load time.
type NotionConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// DatabasesConfig references the workspace databases by ID or exact title.
type DatabasesConfig struct {
	// Entries is the daily entries database the aggregator scans and the
	// pruner sweeps.
	Entries string `yaml:"entries"`

	// Projects is the database whose pages are the tracked projects.
	Projects string `yaml:"projects"`

	// Aggregates is the database receiving one record per calendar day.
	Aggregates string `yaml:"aggregates"`
}

// AggregateConfig configures the mention aggregator.
type AggregateConfig struct {
	// Schedule is a 5-field cron expression for daemon mode.
	// Defaults to daily at 23:55.
	Schedule string `yaml:"schedule,omitempty"`

	// SkipEmpty switches the zero-mention policy: when true, a date with
	// no mentions gets no record instead of a zero-count one.
	SkipEmpty bool `yaml:"skip_empty,omitempty"`

	// Properties names the aggregate record properties.
	Properties PropertiesConfig `yaml:"properties,omitempty"`
}

// PropertiesConfig names the properties of the aggregates database.
type PropertiesConfig struct {
	Title    string `yaml:"title,omitempty"`
	Date     string `yaml:"date,omitempty"`
	Count    string `yaml:"count,omitempty"`
	Projects string `yaml:"projects,omitempty"`
}

// PruneConfig configures the stale entry pruner.
type PruneConfig struct {
	// Schedule is a 5-field cron expression for daemon mode.
	// Defaults to weekly, Monday at 08:30.
	Schedule string `yaml:"schedule,omitempty"`

	// Untouched enables deleting entries never edited after creation.
	// Defaults to true.
	Untouched *bool `yaml:"untouched,omitempty"`

	// MaxAgeDays, when positive, enables deleting zero-mention aggregate
	// records older than this many days. Zero disables the prong.
	MaxAgeDays int `yaml:"max_age_days,omitempty"`
}

// UntouchedEnabled reports whether the untouched prong is enabled.
// An absent key means enabled.
func (p PruneConfig) UntouchedEnabled() bool {
	return p.Untouched == nil || *p.Untouched
}

// JournalConfig configures the run history store.
type JournalConfig struct {
	// Path is the SQLite file path. Defaults to journal.db under the
	// data directory.
	Path string `yaml:"path,omitempty"`
}

// GatewayConfig configures the daemon HTTP endpoint.
type GatewayConfig struct {
	// Listen is the bind address. Defaults to 127.0.0.1:8600.
	Listen string `yaml:"listen,omitempty"`

	// Token protects the trigger and status routes with bearer auth.
	// Those routes refuse to mount when it is empty.
	Token string `yaml:"token,omitempty"`
}

// TelemetryConfig configures optional OTLP trace export.
type TelemetryConfig struct {
	// OTLPEndpoint is the collector base URL. Empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`

	// Insecure allows plain HTTP to the collector.
	Insecure bool `yaml:"insecure,omitempty"`
}

const (
	defaultAggregateSchedule = "55 23 * * *"
	defaultPruneSchedule     = "30 8 * * 1"
	defaultGatewayListen     = "127.0.0.1:8600"
)

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Aggregate.Schedule == "" {
		c.Aggregate.Schedule = defaultAggregateSchedule
	}
	if c.Aggregate.Properties.Title == "" {
		c.Aggregate.Properties.Title = "Name"
	}
	if c.Aggregate.Properties.Date == "" {
		c.Aggregate.Properties.Date = "Date"
	}
	if c.Aggregate.Properties.Count == "" {
		c.Aggregate.Properties.Count = "Mentions"
	}
	if c.Aggregate.Properties.Projects == "" {
		c.Aggregate.Properties.Projects = "Projects"
	}
	if c.Prune.Schedule == "" {
		c.Prune.Schedule = defaultPruneSchedule
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = defaultGatewayListen
	}
}

// Default returns a configuration skeleton with all defaults applied,
// used by the init wizard as a starting point.
func Default() *Config {
	cfg := &Config{
		Version: "1",
		Notion:  NotionConfig{Token: "${NOTION_TOKEN}"},
	}
	cfg.applyDefaults()
	return cfg
}
