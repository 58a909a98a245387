package storage

import (
	"fmt"

	"github.com/thisdougb/techtrends/internal/config"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// BackupConfig holds backup-specific configuration
type BackupConfig struct {
	BackupDir     string
	RetentionDays int
	Compress      bool
}

// Config holds all configuration options for the store
type Config struct {
	DBPath string
	Driver string
	Backup BackupConfig
}

// LoadConfig reads the store configuration from the config package
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBPath: config.StringValue("TECHTRENDS_DB_PATH"),
		Driver: config.StringValue("TECHTRENDS_DB_DRIVER"),
		Backup: BackupConfig{
			BackupDir:     config.StringValue("TECHTRENDS_BACKUP_DIR"),
			RetentionDays: config.IntValue("TECHTRENDS_BACKUP_RETENTION_DAYS"),
			Compress:      config.BoolValue("TECHTRENDS_BACKUP_COMPRESS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the driver name and paths
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}

	switch c.Driver {
	case DriverCGO, DriverPureGo:
	default:
		return fmt.Errorf("unsupported database driver '%s'", c.Driver)
	}

	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup retention must not be negative")
	}

	return nil
}

// TestConfig returns a configuration suitable for testing
func TestConfig(dir string) *Config {
	return &Config{
		DBPath: dir + "/database.db",
		Driver: DriverCGO,
		Backup: BackupConfig{
			BackupDir:     dir + "/backups",
			RetentionDays: 30,
			Compress:      true,
		},
	}
}
