package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfigs creates a temporary directory structure for testing.
// It returns the temporary root directory and a cleanup function.
func setupTestConfigs(t *testing.T) (string, func()) {
	configDir, err := os.MkdirTemp("", "config_test_")
	require.NoError(t, err)

	// Viper requires a "configs" subdirectory to be present.
	actualConfigPath := filepath.Join(configDir, "configs")
	err = os.Mkdir(actualConfigPath, 0755)
	require.NoError(t, err)

	// Change working directory to the parent of "configs"
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	err = os.Chdir(configDir)
	require.NoError(t, err)

	cleanup := func() {
		os.Chdir(oldWd)
		os.RemoveAll(configDir)
	}

	return actualConfigPath, cleanup
}

func TestLoad_Generator(t *testing.T) {
	actualConfigPath, cleanup := setupTestConfigs(t)
	defer cleanup()

	configContent := `
gcov_path: "gcov-14"
tool_major_version: 14
parallelism: 4
log_level: "debug"
branches:
  loop: true
  if: false
  boolean_op: true
`
	configFile := filepath.Join(actualConfigPath, "generator.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	var cfg Generator
	err = Load("generator", &cfg)
	require.NoError(t, err)
	assert.Equal(t, "gcov-14", cfg.GcovPath)
	assert.Equal(t, 14, cfg.ToolMajorVersion)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Branches.Loop)
	assert.False(t, cfg.Branches.If)
	assert.True(t, cfg.Branches.BooleanOp)
}

func TestLoad_FileNotExists(t *testing.T) {
	_, cleanup := setupTestConfigs(t)
	defer cleanup()

	var cfg Generator
	err := Load("non_existent_config", &cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EmptyFile(t *testing.T) {
	actualConfigPath, cleanup := setupTestConfigs(t)
	defer cleanup()

	emptyConfigFile := filepath.Join(actualConfigPath, "empty.yaml")
	err := os.WriteFile(emptyConfigFile, []byte(""), 0644)
	require.NoError(t, err)

	var cfg Generator
	err = Load("empty", &cfg)
	assert.NoError(t, err) // Viper doesn't error on empty files, just unmarshals nothing
	assert.Empty(t, cfg.GcovPath)
}

func TestLoad_MalformedYAML(t *testing.T) {
	actualConfigPath, cleanup := setupTestConfigs(t)
	defer cleanup()

	malformedContent := "gcov_path: test\n  tool_major_version: oops" // Bad indentation
	malformedFile := filepath.Join(actualConfigPath, "malformed.yaml")
	err := os.WriteFile(malformedFile, []byte(malformedContent), 0644)
	require.NoError(t, err)

	var cfg Generator
	err = Load("malformed", &cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefaultGenerator(t *testing.T) {
	cfg := DefaultGenerator()
	assert.Equal(t, "gcov", cfg.GcovPath)
	assert.GreaterOrEqual(t, cfg.Parallelism, 1)
	assert.True(t, cfg.Branches.Loop)
	assert.True(t, cfg.Branches.If)
	assert.True(t, cfg.Branches.BooleanOp)
}
