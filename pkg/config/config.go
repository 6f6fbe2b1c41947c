// Package config provides configuration loading for the view layer.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// Environment variables overriding file values.
const (
	EnvLogLevel   = "VIEWKIT_LOG_LEVEL"
	EnvLogFormat  = "VIEWKIT_LOG_FORMAT"
	EnvServerAddr = "VIEWKIT_SERVER_ADDR"
)

// Config is the root configuration structure.
type Config struct {
	View    ViewConfig    `yaml:"view"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`

	// baseDir anchors relative paths; set by Load to the file's directory.
	baseDir string
}

// ViewConfig configures modules, the resolver table and the strategy.
type ViewConfig struct {
	// Modules maps a module namespace to its directory; templates live in
	// the "view" sub directory.
	Modules map[string]string `yaml:"modules"`
	// Resolver holds template registrations. A string value registers a
	// template path directly; a map value registers templates of the module
	// named by the key.
	Resolver map[string]any `yaml:"resolver"`
	// Strategy maps file extensions to engine names.
	Strategy map[string]string `yaml:"strategy"`
	// ExtensionPrecedence orders candidate files during discovery.
	ExtensionPrecedence []string `yaml:"extension_precedence"`
	// NoCache disables compiled template caches in the engines.
	NoCache bool `yaml:"no_cache"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// ServerConfig configures the development server of the CLI.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"`
}

// Load reads configuration from a YAML file. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	cfg.baseDir = abs
	return cfg, nil
}

// Parse decodes a YAML document, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// BaseDir returns the directory relative paths are resolved against, "" for
// the working directory.
func (c *Config) BaseDir() string { return c.baseDir }

// ModuleDirs returns the configured module directories with relative paths
// resolved against BaseDir.
func (c *Config) ModuleDirs() map[string]string {
	out := make(map[string]string, len(c.View.Modules))
	for module, dir := range c.View.Modules {
		out[module] = c.path(dir)
	}
	return out
}

// ResolverOptions returns the resolver options implied by the configuration.
func (c *Config) ResolverOptions() []resolver.Option {
	if len(c.View.ExtensionPrecedence) == 0 {
		return nil
	}
	return []resolver.Option{resolver.WithExtensionPrecedence(c.View.ExtensionPrecedence...)}
}

// ApplyResolver registers the configured modules and templates on r. Module
// entries are stored under their qualified names. A template path that is
// not a string, or a resolver value that is neither a string nor a map,
// fails with *view.InvalidInputError.
func (c *Config) ApplyResolver(r *resolver.Resolver) error {
	for _, module := range sortedKeys(c.View.Modules) {
		r.RegisterModulePath(module, c.path(c.View.Modules[module]), true)
	}

	for _, key := range sortedKeys(c.View.Resolver) {
		switch value := c.View.Resolver[key].(type) {
		case string:
			r.RegisterTemplatePath(key, c.path(value))
		case map[string]any:
			for _, template := range sortedKeys(value) {
				path, ok := value[template].(string)
				if !ok {
					return &view.InvalidInputError{
						Field: fmt.Sprintf("view.resolver %q template %q path", key, template),
						Got:   view.TypeName(value[template]),
						Want:  "a string",
					}
				}
				r.RegisterTemplatePath(r.FullTemplateName(key, template), c.path(path))
			}
		default:
			return &view.InvalidInputError{
				Field: fmt.Sprintf("view.resolver %q", key),
				Got:   view.TypeName(value),
				Want:  "a string or a map",
			}
		}
	}
	return nil
}

// ApplyStrategy merges the configured extension mapping into s. Every engine
// named must be registered.
func (c *Config) ApplyStrategy(s *render.Strategy) error {
	for _, ext := range sortedKeys(c.View.Strategy) {
		engine := c.View.Strategy[ext]
		if !s.Registry().Has(engine) {
			return fmt.Errorf("config: strategy for %q: %w", ext, &render.EngineNotFoundError{Engine: engine})
		}
		s.MapExtension(ext, engine)
	}
	return nil
}

// Logger builds the zerolog logger described by the logging section.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil || c.Logging.Level == "" {
		level = zerolog.InfoLevel
	}

	if c.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (c *Config) path(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if c.baseDir == "" || filepath.IsAbs(filepath.FromSlash(p)) {
		return p
	}
	return filepath.Join(c.baseDir, filepath.FromSlash(p))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}
	for ext, engine := range cfg.View.Strategy {
		if strings.TrimSpace(ext) == "" || strings.TrimSpace(engine) == "" {
			return fmt.Errorf("view.strategy entries need an extension and an engine")
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
