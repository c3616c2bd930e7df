// Package config loads the build configuration of a transpilation: defaults,
// the optional project file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/xyproto/env/v2"

	"pyrs/common"
	"pyrs/optimize"
	"pyrs/report"
	"pyrs/toolchain"
	"pyrs/typing"
)

// Config is the build configuration of a single transpilation.
type Config struct {
	// The source name of the entry function.
	MainFunc string

	// The literal passed for every parameter of the entry function.
	EntryArg int64

	NumericType  typing.PrimType
	MemoStrategy optimize.MemoStrategy

	// The cargo executable, build profile and run time limit.
	Cargo   string
	Profile string
	Timeout time.Duration

	LogLevel int

	// The optimization requests of the project file by function name.
	Functions optimize.Supplied

	// The path of the loaded project file.  Empty if there was none.
	Path string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MainFunc:     common.DefaultEntryFunc,
		EntryArg:     common.DefaultEntryArg,
		NumericType:  typing.PrimI64,
		MemoStrategy: optimize.Structural,
		Cargo:        "cargo",
		Profile:      toolchain.ReleaseProfile,
		Timeout:      toolchain.DefaultTimeout,
		LogLevel:     report.LogLevelVerbose,
		Functions:    optimize.Supplied{},
	}
}

// Load builds the configuration for transpiling the file at srcPath.  The
// project file is read from configPath if it is given and otherwise looked up
// next to the source file, where it may be absent.  Environment variables are
// applied over the project file.
func Load(srcPath, configPath string) (*Config, error) {
	c := Default()

	if configPath != "" {
		if err := c.LoadFile(configPath); err != nil {
			return nil, err
		}
	} else {
		path := filepath.Join(filepath.Dir(srcPath), common.ConfigFileName)
		if err := c.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	return c, nil
}

// -----------------------------------------------------------------------------

// tomlConfigFile represents the project file as it is encoded in TOML.
type tomlConfigFile struct {
	Build     *tomlBuild               `toml:"build"`
	Functions map[string]*tomlFunction `toml:"functions"`
}

// tomlBuild represents the `[build]` table of the project file.
type tomlBuild struct {
	MainFunc     string `toml:"main-func"`
	EntryArg     *int64 `toml:"entry-arg"`
	NumericType  string `toml:"numeric-type"`
	MemoStrategy string `toml:"memo-strategy"`
	Timeout      string `toml:"timeout"`
	Cargo        string `toml:"cargo"`
	Profile      string `toml:"profile"`
}

// tomlFunction represents a `[functions.<name>]` table of the project file.
type tomlFunction struct {
	Parallel *bool `toml:"parallel"`
	Memoize  *bool `toml:"memoize"`
}

// LoadFile applies the project file at path over c.  The returned error wraps
// `os.ErrNotExist` if there is no such file.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.decode(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c.Path = path
	return nil
}

// decode reads a project file from r and applies it over c.  Keys that are not
// part of the project file format are rejected.
func (c *Config) decode(r io.Reader) error {
	tcf := &tomlConfigFile{}
	if err := toml.NewDecoder(r).Strict(true).Decode(tcf); err != nil {
		return err
	}

	if tcf.Build != nil {
		if err := c.applyBuild(tcf.Build); err != nil {
			return err
		}
	}

	for name, fn := range tcf.Functions {
		if fn == nil {
			continue
		}

		if !common.IsValidIdentifier(name) {
			return fmt.Errorf("functions.%s: not a valid function name", name)
		}

		c.Functions = c.Functions.Merge(optimize.Supplied{
			name: {Memoize: fn.Memoize, Parallel: fn.Parallel},
		})
	}

	return nil
}

// applyBuild validates the build table and applies it over c.
func (c *Config) applyBuild(tb *tomlBuild) error {
	if tb.MainFunc != "" {
		if !common.IsValidIdentifier(tb.MainFunc) {
			return fmt.Errorf("build.main-func: `%s` is not a valid function name", tb.MainFunc)
		}

		c.MainFunc = tb.MainFunc
	}

	if tb.EntryArg != nil {
		c.EntryArg = *tb.EntryArg
	}

	if tb.NumericType != "" {
		typ, ok := typing.LookupNumeric(tb.NumericType)
		if !ok {
			return fmt.Errorf("build.numeric-type: unknown numeric type `%s` (expected one of %s)", tb.NumericType, strings.Join(typing.NumericLabels, ", "))
		}

		c.NumericType = typ
	}

	if tb.MemoStrategy != "" {
		strategy, ok := optimize.ParseMemoStrategy(tb.MemoStrategy)
		if !ok {
			return fmt.Errorf("build.memo-strategy: unknown strategy `%s` (expected one of %s)", tb.MemoStrategy, strings.Join(optimize.MemoStrategies, ", "))
		}

		c.MemoStrategy = strategy
	}

	if tb.Timeout != "" {
		timeout, err := ParseTimeout(tb.Timeout)
		if err != nil {
			return fmt.Errorf("build.timeout: %w", err)
		}

		c.Timeout = timeout
	}

	if tb.Cargo != "" {
		c.Cargo = tb.Cargo
	}

	if tb.Profile != "" {
		c.Profile = tb.Profile
	}

	return nil
}

// -----------------------------------------------------------------------------

// Enumeration of the environment variables read by pyrs.
const (
	EnvCargo    = "PYRS_CARGO"
	EnvTimeout  = "PYRS_TIMEOUT"
	EnvLogLevel = "PYRS_LOGLEVEL"
	EnvEntryArg = "PYRS_ENTRY_ARG"
)

// ApplyEnv applies the environment variables that are set over c.  The
// environment is read afresh on every call.
func (c *Config) ApplyEnv() error {
	env.Load()

	if env.Has(EnvCargo) {
		c.Cargo = env.Str(EnvCargo)
	}

	if env.Has(EnvTimeout) {
		timeout, err := ParseTimeout(env.Str(EnvTimeout))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}

		c.Timeout = timeout
	}

	if env.Has(EnvLogLevel) {
		level, ok := report.ParseLogLevel(env.Str(EnvLogLevel))
		if !ok {
			return fmt.Errorf("%s: unknown log level `%s`", EnvLogLevel, env.Str(EnvLogLevel))
		}

		c.LogLevel = level
	}

	if env.Has(EnvEntryArg) {
		arg, err := strconv.ParseInt(env.Str(EnvEntryArg), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: `%s` is not an integer", EnvEntryArg, env.Str(EnvEntryArg))
		}

		c.EntryArg = arg
	}

	return nil
}

// ParseTimeout parses a run time limit: either a duration such as `30s` or a
// plain number of seconds.  A limit of zero disables the limit.
func ParseTimeout(text string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(text, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("timeout must not be negative")
		}

		return time.Duration(secs * float64(time.Second)), nil
	}

	timeout, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("invalid duration `%s`", text)
	}

	if timeout < 0 {
		return 0, fmt.Errorf("timeout must not be negative")
	}

	return timeout, nil
}
