package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// ErrMissingConfig is returned by Require when a required value is not set
var ErrMissingConfig = errors.New("missing required configuration")

// Config holds the project config values
type Config struct {
	URL          string `koanf:"db_uri"`
	DatabaseName string `koanf:"db_name"`
	BaseURL      string `koanf:"base_url" validate:"omitempty,url"`
	Port         string `koanf:"port"`
	Env          string `koanf:"env"`

	CloudinaryCloudName string `koanf:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `koanf:"cloudinary_api_key"`
	CloudinaryAPISecret string `koanf:"cloudinary_api_secret"`

	AdminEmail    string `koanf:"admin_email" validate:"omitempty,email"`
	AdminPassword string `koanf:"admin_password"`
	JWTSecret     string `koanf:"jwt_secret"`
	SiteName      string `koanf:"site_name"`

	SendgridAPIKey  string `koanf:"sendgrid_api_key"`
	DigestFromEmail string `koanf:"digest_from_email" validate:"omitempty,email"`
	DigestSchedule  string `koanf:"digest_schedule"`

	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// New sets up all config related services. The logger is installed even when
// loading fails so the caller can report the error through it.
func New() (*Config, error) {
	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	conf, err := Load()
	logEnv := os.Getenv("ENV")
	if err == nil {
		logEnv = conf.Env
	}

	//setup zap logger and replace default logger
	logger, lerr := setLogger(logEnv)
	if lerr != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	if err != nil {
		return nil, err
	}
	return conf, nil
}

// Load reads the environment into a Config, applying defaults for optional values
func Load() (*Config, error) {
	k := koanf.New(".")
	// empty variables are skipped so defaults survive "FOO=" lines
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	conf := defaults()
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if conf.RequestTimeout <= 0 {
		conf.RequestTimeout = 60 * time.Second
	}
	if err := validator.New().Struct(conf); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return conf, nil
}

func defaults() *Config {
	return &Config{
		DatabaseName:   "civic_reports",
		Port:           "8080",
		SiteName:       "Civic Reports",
		DigestSchedule: "0 7 * * *",
		RequestTimeout: 60 * time.Second,
	}
}

// Require returns ErrMissingConfig naming every listed environment key that is empty.
// Keys are the environment variable names, e.g. "DB_URI".
func (c *Config) Require(keys ...string) error {
	values := c.values()
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(values[strings.ToLower(k)]) == "" {
			missing = append(missing, strings.ToUpper(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// TokenSecret is the key admin tokens are signed with. It falls back to the
// privileged storage key when no dedicated secret is configured.
func (c *Config) TokenSecret() []byte {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret)
	}
	return []byte(c.CloudinaryAPISecret)
}

func (c *Config) values() map[string]string {
	return map[string]string{
		"db_uri":                c.URL,
		"db_name":               c.DatabaseName,
		"base_url":              c.BaseURL,
		"port":                  c.Port,
		"cloudinary_cloud_name": c.CloudinaryCloudName,
		"cloudinary_api_key":    c.CloudinaryAPIKey,
		"cloudinary_api_secret": c.CloudinaryAPISecret,
		"admin_email":           c.AdminEmail,
		"admin_password":        c.AdminPassword,
		"jwt_secret":            c.JWTSecret,
		"site_name":             c.SiteName,
		"sendgrid_api_key":      c.SendgridAPIKey,
		"digest_from_email":     c.DigestFromEmail,
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
