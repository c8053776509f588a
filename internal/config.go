package internal

import (
	"log/slog"
	"net"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sopgate/internal/sopref"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Viewer ViewerConfig      `yaml:"viewer"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Viewer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	)
}

// VaultConfig holds the vault root and the folders clients may append to.
type VaultConfig struct {
	Path      string   `yaml:"path"`
	Allowlist []string `yaml:"allowlist"`
}

// Validate validates the vault configuration. Allowlist entries are exact,
// case-sensitive prefixes; an empty entry would allow every path.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Allowlist, validation.Required, validation.Each(validation.Required)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds the bearer token for protected routes.
//
// An empty token is accepted at startup: protected routes then answer 500
// until one is configured.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// Configured reports whether a token is set.
func (c *AuthConfig) Configured() bool {
	return c.Token != ""
}

// ViewerConfig locates the reference viewer that citation links open.
type ViewerConfig struct {
	Route      string `yaml:"route"`
	QueryParam string `yaml:"query_param"`
}

// Validate validates the viewer configuration.
func (c *ViewerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Route, validation.Required),
		validation.Field(&c.QueryParam, validation.Required),
	)
}

// Navigator returns the navigation strategy for this viewer.
func (c *ViewerConfig) Navigator() sopref.Navigator {
	return sopref.Navigator{Route: c.Route, QueryParam: c.QueryParam}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host:         "127.0.0.1",
				Port:         8765,
				MaxBodyBytes: 1 << 20,
			},
		},
		Vault: VaultConfig{
			Path:      "./vault",
			Allowlist: []string{"Inbox/", "Study/"},
		},
		SQLite: SQLiteConfig{
			Path: "./sopgate.db",
		},
		Viewer: ViewerConfig{
			Route:      "/library/sop",
			QueryParam: "path",
		},
	}
}
