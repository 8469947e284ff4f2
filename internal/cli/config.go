package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/nexus/internal/paths"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "NEXUS"
)

// Config keys. Every key is registered with a default so environment
// overrides reach Unmarshal.
const (
	keyHostedURL       = "hosted.url"
	keyHostedAPIKey    = "hosted.api_key"
	keyHostedTimeout   = "hosted.timeout"
	keyHostedRateLimit = "hosted.rate_limit"
	keyStoreBackend    = "store.backend"
	keyStoreDataDir    = "store.data_dir"
	keyStorePrefix     = "store.prefix"
	keyStoreVersion    = "store.schema_version"
	keyStoreIDFormat   = "store.id_format"
	keyStoreExtra      = "store.extra_tables"
	keyAuthSecret      = "auth.jwt_secret"
	keyAuthTokenTTL    = "auth.token_ttl"
	keyAuthCost        = "auth.password_cost"
)

// newViper returns a viper instance reading config.yaml from configDir
// with NEXUS_* environment overrides. The hosted credentials also accept
// SUPABASE_URL and SUPABASE_ANON_KEY.
func newViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(keyHostedURL, "")
	v.SetDefault(keyHostedAPIKey, "")
	v.SetDefault(keyHostedTimeout, types.DefaultHostedTimeout)
	v.SetDefault(keyHostedRateLimit, 0)
	v.SetDefault(keyStoreBackend, types.StoreSQLite)
	v.SetDefault(keyStoreDataDir, "")
	v.SetDefault(keyStorePrefix, types.DefaultPrefix)
	v.SetDefault(keyStoreVersion, types.DefaultSchemaVersion)
	v.SetDefault(keyStoreIDFormat, types.IDFormatShort)
	v.SetDefault(keyStoreExtra, []string{})
	v.SetDefault(keyAuthSecret, "")
	v.SetDefault(keyAuthTokenTTL, types.DefaultTokenTTL)
	v.SetDefault(keyAuthCost, 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyHostedURL, "NEXUS_HOSTED_URL", "SUPABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(keyHostedAPIKey, "NEXUS_HOSTED_API_KEY", "SUPABASE_ANON_KEY"); err != nil {
		return nil, err
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// loadConfig resolves the config directory, reads it, and applies the data
// directory precedence. A missing config.yaml is not an error.
func (a *app) loadConfig() (types.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := newViper(configDir)
	if err != nil {
		return types.Config{}, "", err
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", fmt.Errorf("decode config: %w", err)
	}
	if cfg.Store.Backend != types.StoreMemory {
		dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.Store.DataDir)
		if err != nil {
			return types.Config{}, "", fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.Store.DataDir = dataDir
	}
	a.log.Debug("config loaded")
	return cfg, configDir, nil
}

// writeConfigIfMissing writes cfg to configDir/config.yaml unless the file
// already exists. It reports whether it wrote the file.
func writeConfigIfMissing(configDir string, cfg types.Config) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := paths.Ensure(configDir); err != nil {
		return false, err
	}

	out := types.Config{Store: types.StoreConfig{
		Backend:       cfg.Store.Backend,
		DataDir:       cfg.Store.DataDir,
		SchemaVersion: cfg.Store.SchemaVersion,
	}}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# nexus configuration. Set hosted.url and hosted.api_key (or\n" +
		"# SUPABASE_URL and SUPABASE_ANON_KEY) to use the hosted backend.\n"
	return true, os.WriteFile(path, append([]byte(header), data...), 0o644)
}
