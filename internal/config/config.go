package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the EduSubmit service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	ScriptURL        string
	ScriptTimeout    time.Duration
	UploadMaxMB      int
	UploadAllowedExt []string
	TeacherPassword  string
	SessionSecret    string
	SessionTTL       time.Duration
	SessionCookie    string
	SessionSecure    bool
	RedisURL         string
	RosterPath       string
	CORSOrigins      string
	LoginRateLimit   int
	LoginRateWindow  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SessionStore names the backing store of page sessions.
func (c Config) SessionStore() string {
	if c.RedisURL != "" {
		return "redis"
	}
	return "memory"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUSUBMIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduSubmit")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("script.timeout", "60s")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("upload.allowed_ext", ".pdf,.jpg,.jpeg,.png,.doc,.docx,.xls,.xlsx")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie", "edusubmit_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("cors.origins", "*")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	scriptTimeout, err := parseDuration(v, "script.timeout")
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "login.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		ScriptURL:        strings.TrimSpace(v.GetString("script.url")),
		ScriptTimeout:    scriptTimeout,
		UploadMaxMB:      v.GetInt("upload.max_mb"),
		UploadAllowedExt: splitList(v.GetString("upload.allowed_ext")),
		TeacherPassword:  v.GetString("teacher.password"),
		SessionSecret:    v.GetString("session.secret"),
		SessionTTL:       sessionTTL,
		SessionCookie:    v.GetString("session.cookie"),
		SessionSecure:    v.GetBool("session.secure"),
		RedisURL:         strings.TrimSpace(v.GetString("redis.url")),
		RosterPath:       strings.TrimSpace(v.GetString("roster.path")),
		CORSOrigins:      v.GetString("cors.origins"),
		LoginRateLimit:   v.GetInt("login.rate_limit"),
		LoginRateWindow:  rateWindow,
	}

	if cfg.ScriptURL == "" {
		return Config{}, fmt.Errorf("script url must be provided")
	}
	if cfg.TeacherPassword == "" {
		return Config{}, fmt.Errorf("teacher password must be provided")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("session secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
