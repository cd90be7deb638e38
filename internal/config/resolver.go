package config

import (
	"os"
	"path/filepath"
	"time"
)

// Location resolves the configured timezone. An empty timezone resolves to
// the process-local zone. Validate has already checked the name, so a load
// failure here falls back to local rather than failing the run.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// JournalPath resolves the run journal file path, defaulting to journal.db
// under the data directory.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(DataDir(), "journal.db")
}

// DataDir returns the directory for local state.
// $XDG_DATA_HOME/scrumroll when set, ~/.config/scrumroll/data otherwise.
func DataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "scrumroll")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scrumroll", "data")
}
