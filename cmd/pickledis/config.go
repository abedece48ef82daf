package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/kisielk/ogevent"
	"github.com/scott-cotton/cli"
)

type Config struct {
	Stats      bool   `cli:"name=stats desc='print event statistics instead of events'"`
	Header     bool   `cli:"name=header desc='require the PROTO header'"`
	Strict     bool   `cli:"name=strict desc='require valid UTF-8 in unicode payloads'"`
	Threshold  int    `cli:"name=threshold desc='FRAME length from which frames are decoded in parallel, -1 for never'"`
	Parallel   int    `cli:"name=parallel desc='max number of frames decoded concurrently'"`
	ConfigFile string `cli:"name=config desc='TOML configuration file'"`
	Color      bool   `cli:"name=color desc='colorize output (default when stdout is a terminal)'"`
	Verbose    bool   `cli:"name=v desc='log debug messages to stderr'"`

	Main *cli.Command
}

// fileConfig is the layout of the -config file.
type fileConfig struct {
	Stats     bool  `toml:"stats"`
	Header    bool  `toml:"header"`
	Strict    bool  `toml:"strict"`
	Threshold int64 `toml:"threshold"`
	Parallel  int   `toml:"parallel"`
	Color     bool  `toml:"color"`
}

// loadFile fills settings from the TOML file at path. Settings given on the
// command line take precedence.
func (cfg *Config) loadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("stats") && !cfg.isSet("stats") {
		cfg.Stats = raw.Stats
	}
	if meta.IsDefined("header") && !cfg.isSet("header") {
		cfg.Header = raw.Header
	}
	if meta.IsDefined("strict") && !cfg.isSet("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("threshold") && !cfg.isSet("threshold") {
		cfg.Threshold = int(raw.Threshold)
	}
	if meta.IsDefined("parallel") && !cfg.isSet("parallel") {
		if raw.Parallel < 0 {
			return fmt.Errorf("load config: parallel must not be negative, got %d", raw.Parallel)
		}
		cfg.Parallel = raw.Parallel
	}
	if meta.IsDefined("color") && !cfg.isSet("color") {
		cfg.Color = raw.Color
	}
	return nil
}

// isSet tells whether option name was given on the command line.
func (cfg *Config) isSet(name string) bool {
	if cfg.Main == nil {
		return false
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == name {
			return opt.Value != nil
		}
	}
	return false
}

// options returns DecodeAll options for the configured settings.
func (cfg *Config) options() []ogevent.Option {
	opts := []ogevent.Option{
		ogevent.WithFrameThreshold(int64(cfg.Threshold)),
		ogevent.WithParallelism(cfg.Parallel),
	}
	if cfg.Header {
		opts = append(opts, ogevent.WithHeaderCheck())
	}
	if cfg.Strict {
		opts = append(opts, ogevent.WithStrictUnicode())
	}
	return opts
}
