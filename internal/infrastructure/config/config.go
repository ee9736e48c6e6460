package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/infrastructure/logging"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// DefaultRuntimeImport is the import path of the runtime used by generated modules
const DefaultRuntimeImport = "github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"

// Config represents the relgen configuration
type Config struct {
	ProjectRoot string
	Targets     []TargetConfig // The SCHEMA_PATH target first, then TARGETS in order
	Generator   GeneratorConfig
	Log         LogConfig
	Watch       WatchConfig
	Cache       CacheConfig
}

// TargetConfig is one schema file and the module generated from it
type TargetConfig struct {
	SchemaPath  string
	OutputPath  string
	PackageName string
}

// GeneratorConfig represents code generation settings
type GeneratorConfig struct {
	RuntimeImport string
	LimitPolicy   relstore.LimitPolicy
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// WatchConfig represents watch mode configuration
type WatchConfig struct {
	Debounce time.Duration
}

// CacheConfig represents compile cache configuration
type CacheConfig struct {
	Entries int // 0 disables the cache
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	// Find project root
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	viper.SetDefault("PROJECT_ROOT", projectRoot)
	viper.SetDefault("SCHEMA_PATH", "schema/relations.rel")
	viper.SetDefault("OUTPUT_PATH", "internal/relations/relations_gen.go")
	viper.SetDefault("PACKAGE_NAME", "") // derived from OUTPUT_PATH
	viper.SetDefault("RUNTIME_IMPORT", DefaultRuntimeImport)
	viper.SetDefault("LIMIT_POLICY", "reject")
	viper.SetDefault("TARGETS", "")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("WATCH_DEBOUNCE_MS", 200)
	viper.SetDefault("COMPILE_CACHE_ENTRIES", 64)

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	root := viper.GetString("PROJECT_ROOT")
	if root == "" {
		var err error
		if root, err = findProjectRoot(); err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	policy, err := relstore.ParseLimitPolicy(strings.ToLower(viper.GetString("LIMIT_POLICY")))
	if err != nil {
		return nil, fmt.Errorf("LIMIT_POLICY: %w", err)
	}

	level := viper.GetString("LOG_LEVEL")
	if _, err := logging.ParseLevel(level); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	format, err := logging.ParseFormat(viper.GetString("LOG_FORMAT"))
	if err != nil {
		return nil, fmt.Errorf("LOG_FORMAT: %w", err)
	}

	debounce := viper.GetInt("WATCH_DEBOUNCE_MS")
	if debounce < 0 {
		return nil, fmt.Errorf("WATCH_DEBOUNCE_MS must not be negative, got %d", debounce)
	}

	cacheEntries := viper.GetInt("COMPILE_CACHE_ENTRIES")
	if cacheEntries < 0 {
		return nil, fmt.Errorf("COMPILE_CACHE_ENTRIES must not be negative, got %d", cacheEntries)
	}

	runtimeImport := viper.GetString("RUNTIME_IMPORT")
	if runtimeImport == "" {
		return nil, fmt.Errorf("RUNTIME_IMPORT must not be empty")
	}

	primary, err := NewTargetConfig(viper.GetString("SCHEMA_PATH"), viper.GetString("OUTPUT_PATH"))
	if err != nil {
		return nil, fmt.Errorf("SCHEMA_PATH/OUTPUT_PATH: %w", err)
	}
	if name := viper.GetString("PACKAGE_NAME"); name != "" {
		primary.PackageName = name
	}

	extra, err := ParseTargets(viper.GetString("TARGETS"))
	if err != nil {
		return nil, fmt.Errorf("TARGETS: %w", err)
	}

	config := &Config{
		ProjectRoot: root,
		Targets:     append([]TargetConfig{primary}, extra...),
		Generator: GeneratorConfig{
			RuntimeImport: runtimeImport,
			LimitPolicy:   policy,
		},
		Log: LogConfig{
			Level:  level,
			Format: format,
		},
		Watch: WatchConfig{
			Debounce: time.Duration(debounce) * time.Millisecond,
		},
		Cache: CacheConfig{
			Entries: cacheEntries,
		},
	}
	for i := range config.Targets {
		config.Targets[i] = config.Targets[i].Resolve(root)
	}

	return config, nil
}

// NewTargetConfig creates a target whose package name is the base name of the output directory
func NewTargetConfig(schemaPath, outputPath string) (TargetConfig, error) {
	schemaPath = strings.TrimSpace(schemaPath)
	outputPath = strings.TrimSpace(outputPath)
	if schemaPath == "" || outputPath == "" {
		return TargetConfig{}, fmt.Errorf("schema and output paths are required (got %q and %q)", schemaPath, outputPath)
	}

	return TargetConfig{
		SchemaPath:  schemaPath,
		OutputPath:  outputPath,
		PackageName: filepath.Base(filepath.Dir(filepath.Clean(outputPath))),
	}, nil
}

// ParseTargets parses comma separated "schema=output" pairs. Empty entries are skipped.
func ParseTargets(s string) ([]TargetConfig, error) {
	var targets []TargetConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		schemaPath, outputPath, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed target %q (expected schema=output)", entry)
		}
		target, err := NewTargetConfig(schemaPath, outputPath)
		if err != nil {
			return nil, fmt.Errorf("malformed target %q: %w", entry, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// Resolve returns the target with relative paths joined to root
func (t TargetConfig) Resolve(root string) TargetConfig {
	if !filepath.IsAbs(t.SchemaPath) {
		t.SchemaPath = filepath.Join(root, t.SchemaPath)
	}
	if !filepath.IsAbs(t.OutputPath) {
		t.OutputPath = filepath.Join(root, t.OutputPath)
	}
	return t
}
