// Package config handles tagvm.toml engine configuration.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/tagvm/errors"
	"github.com/wippyai/tagvm/vm"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "tagvm.toml"

// Config represents a tagvm.toml file.
type Config struct {
	Log    Log    `toml:"log"`
	Engine Engine `toml:"engine"`
	IO     IO     `toml:"io"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Engine sizes the machine and bounds a run.
type Engine struct {
	HeapSize  int    `toml:"heap_size"`
	StackSize int    `toml:"stack_size"`
	MaxSteps  uint64 `toml:"max_steps"`
	Trace     bool   `toml:"trace"`
}

// IO configures the output boundary.
type IO struct {
	FlushOnHalt bool `toml:"flush_on_halt"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or console
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Engine: Engine{
			HeapSize:  vm.DefaultHeapSize,
			StackSize: vm.DefaultStackSize,
		},
		IO:  IO{FlushOnHalt: true},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "cannot read "+path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse decodes TOML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse error")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown keys: "+strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Engine.HeapSize < 0 || c.Engine.StackSize < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("negative size (heap %d, stack %d)", c.Engine.HeapSize, c.Engine.StackSize).Build()
	}
	if c.Engine.HeapSize == 0 {
		c.Engine.HeapSize = vm.DefaultHeapSize
	}
	if c.Engine.StackSize == 0 {
		c.Engine.StackSize = vm.DefaultStackSize
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Log.Format).Detail("log format %q is not json or console", c.Log.Format).Build()
	}
	return nil
}

// FindAndLoad walks up from startDir to find a tagvm.toml file and loads it.
// Without one it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve "+startDir)
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() []vm.Option {
	return []vm.Option{
		vm.WithHeapSize(c.Engine.HeapSize),
		vm.WithStackSize(c.Engine.StackSize),
		vm.WithMaxSteps(c.Engine.MaxSteps),
		vm.WithTrace(c.Engine.Trace),
		vm.WithFlushOnHalt(c.IO.FlushOnHalt),
	}
}

// NewLogger builds the zap logger described by the [log] table. Output goes
// to stderr so program output on stdout stays clean.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}

	zc := zap.NewProductionConfig()
	if c.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
