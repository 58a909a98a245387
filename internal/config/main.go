package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defaultValues = map[string]interface{}{
	"LOGLEVEL":                         "DEBUG",            // DEBUG, INFO, WARNING, ERROR, CRITICAL
	"TECHTRENDS_LOG_FILE":              "app.log",          // Extra log destination, empty disables
	"TECHTRENDS_ADDR":                  "0.0.0.0:3111",     // Listen address
	"TECHTRENDS_DB_PATH":               "database.db",      // SQLite store file
	"TECHTRENDS_DB_DRIVER":             "sqlite3",          // sqlite3 (cgo) or sqlite (pure Go)
	"TECHTRENDS_SECRET_KEY":            "your secret key",  // Session cookie signing key
	"TECHTRENDS_SESSION_NAME":          "session",          // Session cookie name
	"TECHTRENDS_RATE_LIMIT":            0,                  // Requests per second per client, 0 disables
	"TECHTRENDS_RATE_BURST":            10,                 // Limiter burst size
	"TECHTRENDS_BACKUP_DIR":            "./backups",        // Directory for backup files
	"TECHTRENDS_BACKUP_RETENTION_DAYS": 30,                 // Days to retain backup files
	"TECHTRENDS_BACKUP_COMPRESS":       true,               // zstd compress backup files
	"TECHTRENDS_SHUTDOWN_TIMEOUT":      "10s",              // Graceful shutdown wait
}

var v = newViper()

func newViper() *viper.Viper {
	nv := viper.New()
	for key, value := range defaultValues {
		nv.SetDefault(key, value)
	}
	// an empty variable is a value, so TECHTRENDS_LOG_FILE= disables the file
	nv.AllowEmptyEnv(true)
	nv.AutomaticEnv()
	return nv
}

// LoadEnvFile reads KEY=value pairs from path into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// BindFlag lets a command line flag override the env/default value of key.
func BindFlag(key string, flag *pflag.Flag) error {
	return v.BindPFlag(key, flag)
}

func StringValue(key string) string {
	if _, ok := defaultValues[key]; ok {
		return v.GetString(key)
	}
	return ""
}

// IntValue gets an int from flags, env or default. Unparseable env values
// fall back to the default.
func IntValue(key string) int {
	defaultValue, ok := defaultValues[key]
	if !ok {
		return 0
	}
	if !isValid(key, defaultValue) {
		return defaultValue.(int)
	}
	return v.GetInt(key)
}

// BoolValue gets a bool from flags, env or default
func BoolValue(key string) bool {
	defaultValue, ok := defaultValues[key]
	if !ok {
		return false
	}
	if !isValid(key, defaultValue) {
		return defaultValue.(bool)
	}
	return v.GetBool(key)
}

// DurationValue parses a duration string value, falling back to the default
// when the configured value is not a valid duration.
func DurationValue(key string) time.Duration {
	defaultValue, ok := defaultValues[key]
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		d, _ = time.ParseDuration(defaultValue.(string))
	}
	return d
}

// isValid reports whether the current raw value of key parses as the type
// of its default. viper quietly turns garbage into zero values.
func isValid(key string, fallback interface{}) bool {
	raw := v.GetString(key)
	switch fallback.(type) {
	case int:
		_, err := strconv.Atoi(raw)
		return err == nil
	case bool:
		_, err := strconv.ParseBool(raw)
		return err == nil
	}
	return true
}
