// Package settings loads operator settings from config.toml in the
// application home, KALEIDO_* environment variables and command-line flags.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/platform"
)

const (
	// FileName is the name of the settings file (without extension).
	FileName = "config"
	// FileExt is the settings file extension.
	FileExt = "toml"
	// EnvPrefix prefixes every settings environment variable.
	EnvPrefix = "KALEIDO"
)

// Setting keys, shared by the file, the environment (upper-cased, prefixed)
// and flag bindings.
const (
	KeyGitHubToken   = "github_token"
	KeyCatalogURL    = "catalog_url"
	KeyRustABI       = "rust_abi"
	KeyDebug         = "debug"
	KeyCatalogMaxAge = "catalog_max_age"
)

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid setting")

// Settings holds the resolved operator settings.
type Settings struct {
	GitHubToken   string        `mapstructure:"github_token"`
	CatalogURL    string        `mapstructure:"catalog_url"`
	RustABI       string        `mapstructure:"rust_abi"`
	Debug         bool          `mapstructure:"debug"`
	CatalogMaxAge time.Duration `mapstructure:"catalog_max_age"`

	// File is the settings file that was read, empty if none.
	File string `mapstructure:"-"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		CatalogURL:    catalog.DefaultURL,
		CatalogMaxAge: catalog.DefaultMaxAge,
	}
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	flags map[string]*pflag.Flag
}

// WithFlag binds a command-line flag to key. A changed flag overrides the
// environment and the settings file. Nil flags are ignored.
func WithFlag(key string, f *pflag.Flag) Option {
	return func(l *loader) {
		if f != nil {
			l.flags[key] = f
		}
	}
}

// Load resolves settings with precedence flag > environment > file > default.
// A missing settings file in dir is not an error.
func Load(dir string, opts ...Option) (*Settings, error) {
	l := &loader{flags: make(map[string]*pflag.Flag)}
	for _, opt := range opts {
		opt(l)
	}

	v := viper.New()

	defaults := Defaults()
	v.SetDefault(KeyGitHubToken, defaults.GitHubToken)
	v.SetDefault(KeyCatalogURL, defaults.CatalogURL)
	v.SetDefault(KeyRustABI, defaults.RustABI)
	v.SetDefault(KeyDebug, defaults.Debug)
	v.SetDefault(KeyCatalogMaxAge, defaults.CatalogMaxAge)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional token variable is honoured when the prefixed one is unset.
	if err := v.BindEnv(KeyGitHubToken, EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	for key, f := range l.flags {
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}

	v.SetConfigName(FileName)
	v.SetConfigType(FileExt)
	if dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	s.File = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for values the engine cannot use.
func (s *Settings) Validate() error {
	switch s.RustABI {
	case "", platform.ABIGnu, platform.ABIMusl, platform.ABIMsvc:
	default:
		return fmt.Errorf("%w: %s must be one of %s, %s, %s, got %q",
			ErrInvalid, KeyRustABI, platform.ABIGnu, platform.ABIMusl, platform.ABIMsvc, s.RustABI)
	}
	if s.CatalogURL == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalid, KeyCatalogURL)
	}
	if s.CatalogMaxAge < 0 {
		return fmt.Errorf("%w: %s is negative", ErrInvalid, KeyCatalogMaxAge)
	}
	return nil
}
