// Package config loads generator configuration from YAML files via viper.
package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// BranchFlags enables branch-record emission per construct kind.
type BranchFlags struct {
	Loop      bool `mapstructure:"loop"`
	If        bool `mapstructure:"if"`
	BooleanOp bool `mapstructure:"boolean_op"`
}

// Generator holds the configuration of one coverage-generation run.
type Generator struct {
	// GcovPath is the gcov executable to invoke.
	GcovPath string `mapstructure:"gcov_path"`

	// ToolMajorVersion selects the invocation mode and textual grammar
	// variant (< 8 legacy text, 8 extended text, >= 9 JSON).
	ToolMajorVersion int `mapstructure:"tool_major_version"`

	// Parallelism bounds worker counts for parsing and assembly;
	// 0 means all CPUs.
	Parallelism int `mapstructure:"parallelism"`

	// LogLevel is the logger level name (debug/info/warn/error).
	LogLevel string `mapstructure:"log_level"`

	Branches BranchFlags `mapstructure:"branches"`
}

// DefaultGenerator returns the configuration used when no file overrides it.
func DefaultGenerator() *Generator {
	return &Generator{
		GcovPath:         "gcov",
		ToolMajorVersion: 9,
		Parallelism:      runtime.NumCPU(),
		LogLevel:         "info",
		Branches:         BranchFlags{Loop: true, If: true, BooleanOp: true},
	}
}

// Load reads a configuration file from the "configs" directory into a struct.
// The configName parameter should be the base name of the file without the
// extension (e.g., "generator"). The result parameter should be a pointer to
// a struct that the configuration will be unmarshaled into.
func Load(configName string, result interface{}) error {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(result); err != nil {
		return fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	return nil
}
