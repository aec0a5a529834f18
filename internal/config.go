package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/handoff"
	"github.com/starford/wordvault/internal/remote"
	"github.com/starford/wordvault/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	StorageFS       = "fs"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Storage    StorageConfig     `yaml:"storage"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
	Dictionary DictionaryConfig  `yaml:"dictionary"`
	Remote     RemoteConfig      `yaml:"remote"`
	Form       FormConfig        `yaml:"form"`
	Window     WindowConfig      `yaml:"window"`
	Backup     BackupConfig      `yaml:"backup"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Storage, &c.SQLite, &c.Auth, &c.Dictionary, &c.Remote, &c.Window, &c.Backup,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
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
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value store.
//
// Driver "fs" keeps one JSON file per key under Path. "sqlite" and
// "postgres" keep a kv table reached through DSN.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StorageFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StorageFS, StorageSQLite, StoragePostgres)),
		validation.Field(&c.Path, validation.When(c.Driver == StorageFS, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Driver != StorageFS, validation.Required)),
	)
}

// SQLDriver returns the database/sql driver name for the configured store.
func (c *StorageConfig) SQLDriver() string {
	if c.Driver == StoragePostgres {
		return storage.DriverPostgres
	}
	return storage.DriverSQLite
}

// SQLiteConfig holds the search index database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// DictionaryConfig configures the definition lookup.
type DictionaryConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
}

// Validate validates the dictionary configuration.
func (c *DictionaryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Interval, validation.Min(time.Duration(0))),
	)
}

// RemoteConfig configures delivery to the remote endpoint.
type RemoteConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// FormConfig holds entry form behavior switches.
type FormConfig struct {
	RequireNote bool          `yaml:"require_note"`
	CloseOnSave bool          `yaml:"close_on_save"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// WindowConfig describes the capture window the extension opens.
type WindowConfig struct {
	URL    string `yaml:"url"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Validate validates the window configuration.
func (c *WindowConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Width, validation.Min(0)),
		validation.Field(&c.Height, validation.Min(0)),
	)
}

// Window converts the configuration to a handoff window spec.
func (c *WindowConfig) Window() handoff.Window {
	return handoff.Window{URL: c.URL, Width: c.Width, Height: c.Height}
}

// BackupConfig configures the periodic Markdown backup.
type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Dir      string        `yaml:"dir"`
}

// Validate validates the backup configuration.
func (c *BackupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.When(c.Enabled, validation.Required, validation.Min(time.Minute))),
		validation.Field(&c.Dir, validation.When(c.Enabled, validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: StorageFS,
			Path:   "./data",
		},
		SQLite: SQLiteConfig{
			Path: "./wordvault.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Dictionary: DictionaryConfig{
			BaseURL:  dictionary.DefaultBaseURL,
			Timeout:  dictionary.DefaultTimeout,
			Interval: dictionary.DefaultInterval,
		},
		Remote: RemoteConfig{
			Timeout: remote.DefaultTimeout,
		},
		Window: WindowConfig{
			URL:    "popup.html",
			Width:  handoff.DefaultWidth,
			Height: handoff.DefaultHeight,
		},
		Backup: BackupConfig{
			Interval: 24 * time.Hour,
			Dir:      "./backups",
		},
	}
}
