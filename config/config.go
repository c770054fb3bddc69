// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the configuration of a simulated SerWB link from a
// TOML file.
//
// Keys missing from the file keep their default value. A complete file looks
// like this:
//
//	[link]
//	workers = 1
//	steps_per_cycle = 8
//	master = false
//	auto_align = false
//
//	[link.align]
//	settle = 1
//	debounce = 8
//	dwell = 4
//	loss_threshold = 4
//	expect_comma = false
//	width = 40
//
//	[transport]
//	byte_delay = 0
//	bit_delay = 0
//	ber = 0.0
//	seed = 1
//	pipe_depth = 64
//
//	[run]
//	words = 1000
//	train_cycles = 5000
//	seed = 1
//	free_running = false
//
//	[trace]
//	path = ""
//
//	[log]
//	level = "info"
//
package config

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/db47h/serwb/phy"
	"github.com/db47h/serwb/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Run configures a simulation run.
//
type Run struct {
	// Number of random words sent after training.
	Words int `toml:"words"`
	// Maximum training time.
	TrainCycles int `toml:"train_cycles"`
	// Seed of the payload generator.
	Seed int64 `toml:"seed"`
	// Run the transmitter and receiver in their own goroutines.
	FreeRunning bool `toml:"free_running"`
}

// Trace configures trace recording.
//
type Trace struct {
	// Output file. No trace is recorded if empty.
	Path string `toml:"path"`
}

// Log configures logging.
//
type Log struct {
	Level string `toml:"level"`
}

// Config is the configuration of a simulated link.
//
type Config struct {
	Link      phy.Config       `toml:"link"`
	Transport transport.Config `toml:"transport"`
	Run       Run              `toml:"run"`
	Trace     Trace            `toml:"trace"`
	Log       Log              `toml:"log"`
}

// Default returns the default configuration.
//
func Default() Config {
	return Config{
		Link:      phy.DefaultConfig(),
		Transport: transport.DefaultConfig(),
		Run: Run{
			Words:       1000,
			TrainCycles: 5000,
			Seed:        1,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the configuration file at path over the default configuration.
// Unknown keys are an error.
//
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	if u := meta.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	// an empty level in the file means the default.
	if meta.IsDefined("log", "level") && strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = Default().Log.Level
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate checks the whole configuration.
//
func (c *Config) Validate() error {
	if err := c.Link.Validate(); err != nil {
		return errors.Wrap(err, "link")
	}
	if err := c.Transport.Validate(); err != nil {
		return errors.Wrap(err, "transport")
	}
	if c.Run.Words < 0 {
		return errors.Errorf("run: negative word count %d", c.Run.Words)
	}
	if c.Run.TrainCycles < 1 {
		return errors.Errorf("run: invalid training cycles %d", c.Run.TrainCycles)
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}

// LogLevel returns the configured log level.
//
func (c *Config) LogLevel() (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.Log.Level)))
	if err != nil {
		return zerolog.NoLevel, errors.Wrap(err, "invalid log level")
	}
	return l, nil
}
