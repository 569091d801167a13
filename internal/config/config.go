// Package config loads daemon settings from defaults, a YAML file, a
// .env file and ORDERTASKS_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/ordertasks/internal/dispatch"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/webhook"
)

// EnvPrefix is the prefix of environment overrides.
// ORDERTASKS_TASKS_ADMIN_EMAIL maps to tasks.admin_email.
const EnvPrefix = "ORDERTASKS_"

type Config struct {
	Server   ServerConfig    `koanf:"server" yaml:"server"`
	Store    StoreConfig     `koanf:"store" yaml:"store"`
	Log      LogConfig       `koanf:"log" yaml:"log"`
	Tasks    TasksConfig     `koanf:"tasks" yaml:"tasks"`
	Webhook  webhook.Config  `koanf:"webhook" yaml:"webhook"`
	Dispatch dispatch.Config `koanf:"dispatch" yaml:"dispatch"`
	Metrics  MetricsConfig   `koanf:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Listen string `koanf:"listen" yaml:"listen" validate:"required,hostname_port"`
}

type StoreConfig struct {
	// Path of the SQLite database file.
	Path string `koanf:"path" yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `koanf:"json" yaml:"json"`
	Source bool   `koanf:"source" yaml:"source"`
}

// TasksConfig holds the site settings tasks read at execution time.
type TasksConfig struct {
	UploadsDir      string                  `koanf:"uploads_dir" yaml:"uploads_dir" validate:"required"`
	DefaultAuthorID int64                   `koanf:"default_author_id" yaml:"default_author_id" validate:"min=1"`
	AdminEmail      string                  `koanf:"admin_email" yaml:"admin_email" validate:"omitempty,email"`
	SiteName        string                  `koanf:"site_name" yaml:"site_name"`
	ShippingMethods []models.ShippingMethod `koanf:"shipping_methods" yaml:"shipping_methods" validate:"dive"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
}

// Dir returns the base directory for local state, ~/.ordertasks.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ordertasks"
	}
	return filepath.Join(home, ".ordertasks")
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	base := Dir()
	return &Config{
		Server: ServerConfig{Listen: "127.0.0.1:7470"},
		Store:  StoreConfig{Path: filepath.Join(base, "ordertasks.db")},
		Log:    LogConfig{Level: "info"},
		Tasks: TasksConfig{
			UploadsDir:      filepath.Join(base, "uploads"),
			DefaultAuthorID: 1,
			SiteName:        "ordertasks",
		},
		Webhook:  webhook.DefaultConfig(),
		Dispatch: *dispatch.DefaultConfig(),
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// DefaultShippingMethods is used when no method is configured.
func DefaultShippingMethods() []models.ShippingMethod {
	return []models.ShippingMethod{
		{ID: "flat_rate", Title: "Flat rate", RateID: "flat_rate:1"},
		{ID: "free_shipping", Title: "Free shipping", RateID: "free_shipping:2"},
		{ID: "local_pickup", Title: "Local pickup", RateID: "local_pickup:3"},
	}
}

// Load builds the configuration. Later sources win: defaults, the YAML
// file at path, a .env file next to it, then the environment. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}
	data, err := readYAML(path)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := k.Load(rawMap(data), nil); err != nil {
			return nil, fmt.Errorf("apply %s: %w", path, err)
		}
	}

	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Merge(&Config{Tasks: TasksConfig{ShippingMethods: DefaultShippingMethods()}}); err != nil {
		return nil, fmt.Errorf("apply task defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge fills the zero fields of c from other.
func (c *Config) Merge(other *Config) error {
	return mergo.Merge(c, other)
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func readYAML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return dropNil(data), nil
}

// dropNil removes empty YAML keys so they do not erase defaults.
func dropNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case nil:
		case map[string]any:
			if nested := dropNil(vv); len(nested) > 0 {
				out[k] = nested
			}
		default:
			out[k] = v
		}
	}
	return out
}

// transformEnvKey maps TASKS_ADMIN_EMAIL to tasks.admin_email.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || section == "" || rest == "" {
		return key, value
	}
	return section + "." + rest, value
}

type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) { return r, nil }

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
