// Package config resolves CLI settings from flags, environment, a .env
// file and a YAML config file.
//
// Precedence, highest first:
//
//	--flag > SPARQLC_* environment > .env > sparqlc.yaml > defaults
//
// The config file is searched as sparqlc.yaml in the working directory and
// in $HOME/.config/sparqlc, unless an explicit path is given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/sparqlc/internal/ir"
)

// EnvPrefix is the prefix of environment overrides (SPARQLC_ENDPOINT, ...).
const EnvPrefix = "SPARQLC"

// Keys understood in the config file and environment.
const (
	KeyEndpoint = "endpoint"
	KeyPrefixes = "prefixes"
	KeyJournal  = "journal"
	KeyTimeout  = "timeout"
	KeyFormat   = "format"
	KeyVerbose  = "verbose"
)

// flagKeys maps viper keys to the CLI flag names bound to them.
var flagKeys = map[string]string{
	KeyEndpoint: "endpoint",
	KeyPrefixes: "prefix",
	KeyJournal:  "journal",
	KeyTimeout:  "timeout",
	KeyFormat:   "format",
	KeyVerbose:  "verbose",
}

// Config holds the resolved settings.
type Config struct {
	Endpoint string
	Prefixes *ir.OrderedMap
	Journal  string // empty disables the journal
	Timeout  time.Duration
	Format   string
	Verbose  bool

	// File is the config file that was read, empty if none.
	File string
}

// Loader reads configuration. The zero value reads the real filesystem.
type Loader struct {
	// Fs is used for every file access. Default: the OS filesystem.
	Fs afero.Fs

	// ConfigFile is an explicit config path. When set, it must exist.
	ConfigFile string

	// EnvFile is the dotenv file to load. Default: ".env".
	EnvFile string

	// Home overrides the home directory lookup.
	Home string
}

// Load resolves configuration, binding the given flags (may be nil).
func (l Loader) Load(flags *pflag.FlagSet) (*Config, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := l.loadEnvFile(fs); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyPrefixes, []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
	} else {
		v.SetConfigName("sparqlc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := l.home(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "sparqlc"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	prefixes, err := ParsePrefixes(v.GetStringSlice(KeyPrefixes))
	if err != nil {
		return nil, err
	}

	timeout, err := parseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Endpoint: v.GetString(KeyEndpoint),
		Prefixes: prefixes,
		Journal:  v.GetString(KeyJournal),
		Timeout:  timeout,
		Format:   v.GetString(KeyFormat),
		Verbose:  v.GetBool(KeyVerbose),
		File:     v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be checked by type alone.
// The endpoint is not required here; commands that talk to an endpoint
// check it themselves.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: want text or json", c.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}
	return nil
}

func (l Loader) home() (string, error) {
	if l.Home != "" {
		return l.Home, nil
	}
	return homedir.Dir()
}

// loadEnvFile applies the dotenv file. Variables already set in the
// process environment win, as with godotenv.Load.
func (l Loader) loadEnvFile(fs afero.Fs) error {
	name := l.EnvFile
	if name == "" {
		name = ".env"
	}

	f, err := fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return fmt.Errorf("set %s from %s: %w", k, name, err)
		}
	}
	return nil
}

// ParsePrefixes parses "name=iri" entries into a prefix map, keeping their
// order. Later entries for the same name replace the IRI in place.
func ParsePrefixes(entries []string) (*ir.OrderedMap, error) {
	m := ir.NewOrderedMap()
	for _, e := range entries {
		name, iri, ok := strings.Cut(e, "=")
		name, iri = strings.TrimSpace(name), strings.TrimSpace(iri)
		if !ok || name == "" || iri == "" {
			return nil, fmt.Errorf("invalid prefix %q: want name=iri", e)
		}
		m.Set(name, iri)
	}
	return m, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return d, nil
}
