// Package config loads the record command's configuration.
//
// Sources are layered, later ones winning: built-in defaults, a YAML file
// (record.yaml / record.yml or --config), DB_* and RECORD_* environment
// variables, then explicitly set command line flags.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// Output formats accepted by Format.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config is the record command's configuration.
type Config struct {
	Database  runtime.Config `koanf:"database"`
	Verbose   bool           `koanf:"verbose"`
	SlowQuery time.Duration  `koanf:"slow_query"`
	Format    string         `koanf:"format"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"host":       "database.host",
	"port":       "database.port",
	"database":   "database.database",
	"username":   "database.username",
	"password":   "database.password",
	"charset":    "database.charset",
	"verbose":    "verbose",
	"slow-query": "slow_query",
	"format":     "format",
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	db := runtime.DefaultConfig()
	return map[string]any{
		"database.host":     db.Host,
		"database.port":     db.Port,
		"database.database": "query_builder_orm",
		"database.username": "orm_user",
		"database.password": "",
		"database.charset":  db.Charset,
		"verbose":           false,
		"slow_query":        "200ms",
		"format":            FormatText,
	}
}

// findConfigFile returns the file to read: the explicit path, else
// record.yaml or record.yml in the working directory, else "".
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"record.yaml", "record.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: DB_HOST -> database.host, RECORD_SLOW_QUERY -> slow_query
	if err := k.Load(env.Provider("DB_", ".", func(s string) string {
		return "database." + strings.ToLower(strings.TrimPrefix(s, "DB_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if err := k.Load(env.Provider("RECORD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RECORD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Database.Port)
	}
	if !slices.Contains([]string{FormatText, FormatJSON, FormatMsgpack}, c.Format) {
		return fmt.Errorf("unknown output format %q (want text, json or msgpack)", c.Format)
	}
	if c.SlowQuery < 0 {
		return fmt.Errorf("slow_query must not be negative")
	}
	return nil
}
