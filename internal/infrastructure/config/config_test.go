package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// setupConfig resets viper and points the project root at a temporary directory
func setupConfig(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, InitConfig("test"))

	root := t.TempDir()
	viper.Set("PROJECT_ROOT", root)
	return root
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{name: "default dev environment", env: ""},
		{name: "explicit dev environment", env: "dev"},
		{name: "test environment", env: "test"},
		{name: "prod environment", env: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper for each test
			viper.Reset()
			defer viper.Reset()

			require.NoError(t, InitConfig(tt.env))

			assert.Equal(t, "schema/relations.rel", viper.GetString("SCHEMA_PATH"))
			assert.Equal(t, "internal/relations/relations_gen.go", viper.GetString("OUTPUT_PATH"))
			assert.Equal(t, DefaultRuntimeImport, viper.GetString("RUNTIME_IMPORT"))
			assert.Equal(t, "reject", viper.GetString("LIMIT_POLICY"))
			assert.Equal(t, "info", viper.GetString("LOG_LEVEL"))
			assert.Equal(t, "text", viper.GetString("LOG_FORMAT"))
			assert.Equal(t, 200, viper.GetInt("WATCH_DEBOUNCE_MS"))

			root := viper.GetString("PROJECT_ROOT")
			_, err := os.Stat(filepath.Join(root, "go.mod"))
			assert.NoError(t, err, "project root should contain go.mod")
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	root := setupConfig(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, TargetConfig{
		SchemaPath:  filepath.Join(root, "schema/relations.rel"),
		OutputPath:  filepath.Join(root, "internal/relations/relations_gen.go"),
		PackageName: "relations",
	}, cfg.Targets[0])
	assert.Equal(t, DefaultRuntimeImport, cfg.Generator.RuntimeImport)
	assert.Equal(t, relstore.LimitReject, cfg.Generator.LimitPolicy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 64, cfg.Cache.Entries)
}

func TestLoad_Overrides(t *testing.T) {
	root := setupConfig(t)

	viper.Set("SCHEMA_PATH", "/abs/technosphere.rel")
	viper.Set("OUTPUT_PATH", "gen/store/store_gen.go")
	viper.Set("PACKAGE_NAME", "technosphere")
	viper.Set("LIMIT_POLICY", "WARN")
	viper.Set("TARGETS", "a.rel=out/a/a_gen.go, b.rel=/abs/b/b_gen.go,")
	viper.Set("LOG_FORMAT", "json")
	viper.Set("WATCH_DEBOUNCE_MS", 50)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, relstore.LimitWarn, cfg.Generator.LimitPolicy)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []TargetConfig{
		{SchemaPath: "/abs/technosphere.rel", OutputPath: filepath.Join(root, "gen/store/store_gen.go"), PackageName: "technosphere"},
		{SchemaPath: filepath.Join(root, "a.rel"), OutputPath: filepath.Join(root, "out/a/a_gen.go"), PackageName: "a"},
		{SchemaPath: filepath.Join(root, "b.rel"), OutputPath: "/abs/b/b_gen.go", PackageName: "b"},
	}, cfg.Targets)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "unknown limit policy", key: "LIMIT_POLICY", value: "ignore"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "loud"},
		{name: "unknown log format", key: "LOG_FORMAT", value: "xml"},
		{name: "negative debounce", key: "WATCH_DEBOUNCE_MS", value: -1},
		{name: "negative cache size", key: "COMPILE_CACHE_ENTRIES", value: -5},
		{name: "empty runtime import", key: "RUNTIME_IMPORT", value: ""},
		{name: "empty schema path", key: "SCHEMA_PATH", value: " "},
		{name: "target without separator", key: "TARGETS", value: "a.rel"},
		{name: "target without output", key: "TARGETS", value: "a.rel="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupConfig(t)
			viper.Set(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setupConfig(t)
	t.Setenv("LIMIT_POLICY", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, relstore.LimitWarn, cfg.Generator.LimitPolicy)
}

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets("")
	require.NoError(t, err)
	assert.Empty(t, targets)

	targets, err = ParseTargets("schema/spheres.rel=internal/spheres/spheres_gen.go")
	require.NoError(t, err)
	assert.Equal(t, []TargetConfig{{
		SchemaPath:  "schema/spheres.rel",
		OutputPath:  "internal/spheres/spheres_gen.go",
		PackageName: "spheres",
	}}, targets)
}

func TestTargetConfig_Resolve(t *testing.T) {
	target := TargetConfig{SchemaPath: "s.rel", OutputPath: "/tmp/out.go", PackageName: "out"}

	resolved := target.Resolve("/project")

	assert.Equal(t, filepath.Join("/project", "s.rel"), resolved.SchemaPath)
	assert.Equal(t, "/tmp/out.go", resolved.OutputPath)
	assert.Equal(t, "s.rel", target.SchemaPath, "Resolve must not modify the receiver")
}
