package webbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "WEBBRIDGE_"

// Platform identifies the host platform embedding the web view.
type Platform string

// Known platforms.
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// UnmarshalText validates the platform tag.
func (p *Platform) UnmarshalText(text []byte) error {
	switch v := Platform(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		*p = v
		return nil
	case "":
		*p = PlatformWeb
		return nil
	default:
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidConfig, string(text))
	}
}

func (p Platform) validate() error {
	switch p {
	case "", PlatformIOS, PlatformAndroid, PlatformWeb:
		return nil
	}
	return fmt.Errorf("%w: unknown platform %q", ErrInvalidConfig, string(p))
}

// Env is the configuration the hosting environment provides to the document
// context. It is read once, before the editor is created.
type Env struct {
	// InitialContent is the HTML the editor starts with.
	InitialContent string `env:"INITIAL_CONTENT"`
	Editable       bool   `env:"EDITABLE" envDefault:"true"`

	// ExtensionConfigMap is a JSON object keyed by handler name; see
	// ParseExtensionConfigMap.
	ExtensionConfigMap string `env:"BRIDGE_EXTENSION_CONFIG_MAP"`

	// AllowedHandlers restricts the bridge to the named handlers when non-empty.
	AllowedHandlers []string `env:"WHITELIST_BRIDGE_EXTENSIONS" envSeparator:","`

	DynamicHeight         bool     `env:"DYNAMIC_HEIGHT"`
	DisableColorHighlight bool     `env:"DISABLE_COLOR_HIGHLIGHT"`
	Platform              Platform `env:"PLATFORM" envDefault:"web"`
}

// DefaultEnv returns the configuration used when the host provides nothing.
func DefaultEnv() Env {
	return Env{Editable: true, Platform: PlatformWeb}
}

// LoadEnv reads the configuration from WEBBRIDGE_* environment variables.
func LoadEnv() (Env, error) {
	return loadEnv(env.Options{Prefix: EnvPrefix})
}

// LoadEnvFrom reads the configuration from the given variables instead of the
// process environment. Keys carry the WEBBRIDGE_ prefix.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	return loadEnv(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func loadEnv(opts env.Options) (Env, error) {
	var cfg Env
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Env{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformWeb
	}
	return cfg, nil
}

// EnvKeys lists the environment variables LoadEnv reads.
func EnvKeys() []string {
	return []string{
		EnvPrefix + "INITIAL_CONTENT",
		EnvPrefix + "EDITABLE",
		EnvPrefix + "BRIDGE_EXTENSION_CONFIG_MAP",
		EnvPrefix + "WHITELIST_BRIDGE_EXTENSIONS",
		EnvPrefix + "DYNAMIC_HEIGHT",
		EnvPrefix + "DISABLE_COLOR_HIGHLIGHT",
		EnvPrefix + "PLATFORM",
	}
}

// ExtensionConfig is the host configuration for one handler's extensions.
type ExtensionConfig struct {
	OptionsConfig json.RawMessage `json:"optionsConfig,omitempty"`
	ExtendConfig  json.RawMessage `json:"extendConfig,omitempty"`
}

// ExtensionConfigMap maps handler names to their extension configuration.
type ExtensionConfigMap map[string]ExtensionConfig

// ParseExtensionConfigMap parses the host's JSON configuration blob:
//
//	{"bold": {"optionsConfig": {...}, "extendConfig": {...}}, "italic": null}
//
// An empty string yields an empty map. Entries whose value is null or false
// are dropped, which leaves the handler inert. A blob that is not a JSON
// object fails with ErrInvalidConfig and a nil map. Entries that are not
// objects are skipped one by one: the remaining entries are returned along
// with an error joining one ErrInvalidConfig per bad entry.
func ParseExtensionConfigMap(s string) (ExtensionConfigMap, error) {
	out, errs := parseExtensionConfigMap(s)
	return out, errors.Join(errs...)
}

func parseExtensionConfigMap(s string) (ExtensionConfigMap, []error) {
	out := make(ExtensionConfigMap)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, []error{fmt.Errorf("%w: extension config map: %v", ErrInvalidConfig, err)}
	}

	var errs []error
	for _, name := range sortedKeys(raw) {
		entry := strings.TrimSpace(string(raw[name]))
		if entry == "null" || entry == "false" {
			continue
		}
		if !strings.HasPrefix(entry, "{") {
			errs = append(errs, fmt.Errorf("%w: extension config %q: not an object", ErrInvalidConfig, name))
			continue
		}
		var cfg ExtensionConfig
		if err := json.Unmarshal(raw[name], &cfg); err != nil {
			errs = append(errs, fmt.Errorf("%w: extension config %q: %v", ErrInvalidConfig, name, err))
			continue
		}
		out[name] = cfg
	}
	return out, errs
}

// String encodes the map back to the JSON form hosts provide.
func (m ExtensionConfigMap) String() string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(map[string]ExtensionConfig(m))
	if err != nil {
		return "{}"
	}
	return string(data)
}
