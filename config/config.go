// Package config loads service configuration from a YAML file with
// environment variable overrides. Missing required values are a startup
// error, never a runtime one.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Server   Server   `yaml:"server"`
	WSO2     WSO2     `yaml:"wso2"`
	JWT      JWT      `yaml:"jwt"`
	Database Database `yaml:"database"`
	Metrics  Metrics  `yaml:"metrics"`
	Roles    Roles    `yaml:"roles"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// WSO2 configures the upstream identity authority.
type WSO2 struct {
	TokenEndpoint    string `yaml:"token_endpoint"`
	UserInfoEndpoint string `yaml:"userinfo_endpoint"`
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

// Timeout returns the outbound request timeout.
func (w WSO2) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// JWT configures the bearer-validation layer.
type JWT struct {
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
	JWKSURL   string `yaml:"jwks_url"`
	RoleClaim string `yaml:"role_claim"`
}

// Database selects and configures the product store backend.
type Database struct {
	Driver string `yaml:"driver"` // "memory" or "postgres"
	DSN    string `yaml:"dsn"`
}

// Metrics toggles Prometheus metrics.
type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Roles holds the per-operation allow-lists for product endpoints.
type Roles struct {
	Read   []string `yaml:"read"`
	Write  []string `yaml:"write"`
	Delete []string `yaml:"delete"`
	Admin  []string `yaml:"admin"`
}

// Default returns a Config with every optional field at its default.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		WSO2:   WSO2{TimeoutSeconds: 30},
		JWT:    JWT{RoleClaim: "roles"},
		Database: Database{
			Driver: "memory",
		},
		Roles: Roles{
			Read:   []string{"yks_admin", "yks_user", "yks_test"},
			Write:  []string{"yks_admin", "yks_user"},
			Delete: []string{"yks_admin"},
			Admin:  []string{"yks_admin"},
		},
	}
}

// Load reads the YAML file at path (skipped if path is empty), applies
// environment overrides, then validates. Any failure is fatal to startup.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Server.Addr, "SERVER_ADDR")
	overrideString(&c.Server.StaticDir, "STATIC_DIR")
	overrideString(&c.WSO2.TokenEndpoint, "WSO2_TOKEN_ENDPOINT")
	overrideString(&c.WSO2.UserInfoEndpoint, "WSO2_USERINFO_ENDPOINT")
	overrideString(&c.WSO2.ClientID, "WSO2_CLIENT_ID")
	overrideString(&c.WSO2.ClientSecret, "WSO2_CLIENT_SECRET")
	overrideInt(&c.WSO2.TimeoutSeconds, "WSO2_TIMEOUT_SECONDS")
	overrideString(&c.JWT.Issuer, "JWT_ISSUER")
	overrideString(&c.JWT.Audience, "JWT_AUDIENCE")
	overrideString(&c.JWT.JWKSURL, "JWT_JWKS_URL")
	overrideString(&c.JWT.RoleClaim, "JWT_ROLE_CLAIM")
	overrideString(&c.Database.Driver, "DATABASE_DRIVER")
	overrideString(&c.Database.DSN, "DATABASE_DSN")
	overrideBool(&c.Metrics.Enabled, "METRICS_ENABLED")
}

// Validate reports every missing required field at once.
func (c *Config) Validate() error {
	var missing []string

	required := map[string]string{
		"wso2.token_endpoint":    c.WSO2.TokenEndpoint,
		"wso2.userinfo_endpoint": c.WSO2.UserInfoEndpoint,
		"wso2.client_id":         c.WSO2.ClientID,
		"wso2.client_secret":     c.WSO2.ClientSecret,
		"jwt.issuer":             c.JWT.Issuer,
		"jwt.audience":           c.JWT.Audience,
		"jwt.jwks_url":           c.JWT.JWKSURL,
	}
	for field, value := range required {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}

	if c.Database.Driver != "memory" && c.Database.Driver != "postgres" {
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required with the postgres driver")
	}
	if c.WSO2.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: wso2.timeout_seconds must be positive")
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
