package types

import (
	"errors"
	"time"
)

// Config selects and parameterizes the backend a Client binds to.
type Config struct {
	Hosted HostedConfig `mapstructure:"hosted" yaml:"hosted"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Auth   AuthConfig   `mapstructure:"auth" yaml:"auth"`
}

// HostedConfig holds the hosted backend credentials. When both are set the
// client talks to the hosted backend; otherwise it runs locally.
type HostedConfig struct {
	URL    string `mapstructure:"url" yaml:"url,omitempty"`
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// Timeout bounds each request. Zero means DefaultHostedTimeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit,omitempty"`
}

// StoreConfig describes the local key-value store.
type StoreConfig struct {
	Backend       string   `mapstructure:"backend" yaml:"backend"`
	DataDir       string   `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Prefix        string   `mapstructure:"prefix" yaml:"prefix,omitempty"`
	SchemaVersion string   `mapstructure:"schema_version" yaml:"schema_version,omitempty"`
	IDFormat      string   `mapstructure:"id_format" yaml:"id_format,omitempty"`
	ExtraTables   []string `mapstructure:"extra_tables" yaml:"extra_tables,omitempty"`
}

// AuthConfig parameterizes the local auth shim.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"-"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" yaml:"token_ttl,omitempty"`
	PasswordCost int           `mapstructure:"password_cost" yaml:"password_cost,omitempty"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Id formats.
const (
	IDFormatShort = "short"
	IDFormatUUID  = "uuid"
)

// Defaults applied by WithDefaults.
const (
	DefaultPrefix        = "nexus_crm_local_"
	DefaultSchemaVersion = "4.0"
	DefaultTokenTTL      = time.Hour
	DefaultHostedTimeout = 30 * time.Second
)

// Config validation errors.
var (
	ErrBackendUnknown  = errors.New("unknown store backend")
	ErrDataDirRequired = errors.New("data_dir is required for file and sqlite stores")
	ErrIDFormatUnknown = errors.New("unknown id format")
)

var knownBackends = map[string]bool{
	StoreMemory: true,
	StoreFile:   true,
	StoreSQLite: true,
}

// UseHosted reports whether both hosted credentials are present.
func (c Config) UseHosted() bool {
	return c.Hosted.URL != "" && c.Hosted.APIKey != ""
}

// WithDefaults returns c with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.Store.Backend == "" {
		c.Store.Backend = StoreMemory
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = DefaultPrefix
	}
	if c.Store.SchemaVersion == "" {
		c.Store.SchemaVersion = DefaultSchemaVersion
	}
	if c.Store.IDFormat == "" {
		c.Store.IDFormat = IDFormatShort
	}
	if c.Hosted.Timeout <= 0 {
		c.Hosted.Timeout = DefaultHostedTimeout
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	return c
}

// Validate checks that the Config is well-formed. A half-configured hosted
// section is not an error; the client falls back to the local store.
func (c Config) Validate() error {
	if c.UseHosted() {
		return nil
	}
	if !knownBackends[c.Store.Backend] {
		return ErrBackendUnknown
	}
	if c.Store.Backend != StoreMemory && c.Store.DataDir == "" {
		return ErrDataDirRequired
	}
	switch c.Store.IDFormat {
	case "", IDFormatShort, IDFormatUUID:
	default:
		return ErrIDFormatUnknown
	}
	return nil
}

// Tables returns the set of table names a client accepts.
func (c Config) Tables() map[TableName]bool {
	out := make(map[TableName]bool, len(WellKnownTables)+len(c.Store.ExtraTables))
	for _, t := range WellKnownTables {
		out[t] = true
	}
	for _, t := range c.Store.ExtraTables {
		out[TableName(t)] = true
	}
	return out
}
