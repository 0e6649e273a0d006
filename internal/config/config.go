package config

import (
	"fmt"
	"os"
	"strings"
)

// FatalConfigError reports required environment variables that are missing.
// Startup must fail on it before any network activity.
type FatalConfigError struct {
	Missing []string
}

func (e *FatalConfigError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// Config is the full process configuration, read once at startup and passed
// explicitly into each pipeline invocation.
type Config struct {
	// Scrydex API
	ScrydexBaseURL string
	ScrydexAPIKey  string
	ScrydexTeamID  string

	// Postgres
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Server
	Port string

	// Logging
	JSONLogs bool
}

// Load reads configuration from the environment. All credentials are
// required; absence is a fatal startup error.
func Load() (*Config, error) {
	cfg := &Config{
		ScrydexBaseURL: envString("SCRYDEX_BASE_URL", "https://api.scrydex.com/v1"),
		ScrydexAPIKey:  os.Getenv("SCRYDEX_API_KEY"),
		ScrydexTeamID:  os.Getenv("SCRYDEX_TEAM_ID"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBName:         os.Getenv("DB_NAME"),
		Port:           envString("PORT", "8080"),
		JSONLogs:       envBool("LOG_JSON", false),
	}

	required := []struct {
		key   string
		value string
	}{
		{"SCRYDEX_API_KEY", cfg.ScrydexAPIKey},
		{"SCRYDEX_TEAM_ID", cfg.ScrydexTeamID},
		{"DB_USER", cfg.DBUser},
		{"DB_PASSWORD", cfg.DBPassword},
		{"DB_HOST", cfg.DBHost},
		{"DB_PORT", cfg.DBPort},
		{"DB_NAME", cfg.DBName},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return nil, &FatalConfigError{Missing: missing}
	}

	return cfg, nil
}

// ConnString builds the Postgres connection string from the credentials.
func (c *Config) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}
