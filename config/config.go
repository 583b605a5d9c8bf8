// Package config loads MovieTrack settings from defaults, an optional config
// file, an optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"movietrack/utils"
)

// EnvProduction disables development conveniences such as ephemeral secrets.
const EnvProduction = "production"

// Settings is the complete runtime configuration.
type Settings struct {
	Env      string
	Server   ServerSettings
	Database DatabaseSettings
	Auth     AuthSettings
	CORS     CORSSettings
	Log      LogSettings
	Audit    AuditSettings
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host string
	Port int
}

// Addr returns the listen address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseSettings configures the SQLite store.
type DatabaseSettings struct {
	Path string
}

// AuthSettings configures password hashing and bearer tokens.
type AuthSettings struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// EphemeralSecret is set when JWTSecret was generated at startup.
	EphemeralSecret bool
}

// CORSSettings lists the browser origins allowed to call the API.
type CORSSettings struct {
	AllowedOrigins []string
}

// LogSettings configures the operational log. An empty File logs to stderr only.
type LogSettings struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuditSettings configures the activity log writer.
type AuditSettings struct {
	QueueSize int
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

var envBindings = map[string][]string{
	"env":                 {"MOVIETRACK_ENV", "GO_ENV"},
	"server.host":         {"MOVIETRACK_HOST"},
	"server.port":         {"MOVIETRACK_PORT", "PORT"},
	"database.path":       {"MOVIETRACK_DB_PATH"},
	"auth.jwtsecret":      {"MOVIETRACK_JWT_SECRET", "JWT_SECRET"},
	"auth.tokenttl":       {"MOVIETRACK_TOKEN_TTL"},
	"auth.bcryptcost":     {"MOVIETRACK_BCRYPT_COST"},
	"cors.allowedorigins": {"MOVIETRACK_CORS_ORIGINS", "ALLOWED_ORIGINS"},
	"log.file":            {"MOVIETRACK_LOG_FILE"},
	"log.maxsizemb":       {"MOVIETRACK_LOG_MAX_SIZE_MB"},
	"log.maxbackups":      {"MOVIETRACK_LOG_MAX_BACKUPS"},
	"log.maxagedays":      {"MOVIETRACK_LOG_MAX_AGE_DAYS"},
	"audit.queuesize":     {"MOVIETRACK_AUDIT_QUEUE_SIZE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("database.path", "data/movietrack.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", 7*24*time.Hour)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("cors.allowedorigins", []string{"*"})
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 10)
	v.SetDefault("log.maxbackups", 5)
	v.SetDefault("log.maxagedays", 30)
	v.SetDefault("audit.queuesize", 256)
}

// Load builds Settings. Missing optional files are not an error.
func Load(opts LoadOptions) (*Settings, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	s := &Settings{
		Env: strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		Server: ServerSettings{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseSettings{Path: v.GetString("database.path")},
		Auth: AuthSettings{
			JWTSecret:  v.GetString("auth.jwtsecret"),
			TokenTTL:   v.GetDuration("auth.tokenttl"),
			BcryptCost: v.GetInt("auth.bcryptcost"),
		},
		CORS: CORSSettings{AllowedOrigins: splitList(v.GetStringSlice("cors.allowedorigins"))},
		Log: LogSettings{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.maxsizemb"),
			MaxBackups: v.GetInt("log.maxbackups"),
			MaxAgeDays: v.GetInt("log.maxagedays"),
		},
		Audit: AuditSettings{QueueSize: v.GetInt("audit.queuesize")},
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureSecret(); err != nil {
		return nil, err
	}
	return s, nil
}

// IsProduction reports whether the production environment is selected.
func (s *Settings) IsProduction() bool {
	return s.Env == EnvProduction
}

func (s *Settings) validate() error {
	var problems []string
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", s.Server.Port))
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		problems = append(problems, "database.path is required")
	}
	if s.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.tokenTTL must be positive")
	}
	if s.Auth.BcryptCost < 4 || s.Auth.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("auth.bcryptCost %d out of range 4-31", s.Auth.BcryptCost))
	}
	if s.Audit.QueueSize <= 0 {
		problems = append(problems, "audit.queueSize must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (s *Settings) ensureSecret() error {
	if s.Auth.JWTSecret != "" {
		return nil
	}
	if s.IsProduction() {
		return errors.New("invalid configuration: auth.jwtSecret is required in production")
	}
	secret, err := utils.NewSigningKey(utils.MinSigningKeyBytes)
	if err != nil {
		return err
	}
	log.Println("[config] Warning: no JWT secret configured; using an ephemeral secret, tokens will not survive a restart")
	s.Auth.JWTSecret = secret
	s.Auth.EphemeralSecret = true
	return nil
}

// splitList accepts both list values and a single comma separated string.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
