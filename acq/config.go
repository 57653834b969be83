// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"bytes"
	"os"
	"time"

	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Limits of the measurement parameters.
const (
	MaxChannels    = 64
	MaxBinSteps    = 24
	MaxOffset      = 100000000 // ns
	MinAcqTime     = 1 * time.Millisecond
	MaxAcqTime     = 360000000 * time.Millisecond
	MinSyncDivider = 1
	MaxSyncDivider = 16
	MinTrgLevel    = -1200 // mV
	MaxTrgLevel    = +1200 // mV
	MinChanOffset  = -99999 // ps
	MaxChanOffset  = +99999 // ps
)

// Trigger describes the discriminator settings of an input.
type Trigger struct {
	Edge   int `yaml:"edge"`   // 0: falling, 1: rising
	Level  int `yaml:"level"`  // trigger level, in mV
	Offset int `yaml:"offset"` // channel offset, in ps (cable delay)
}

// Config holds the parameters of an acquisition session.
//
// Binning, Offset, SyncDivider, Sync and Input are only validated here:
// they are passed through to the hardware device driver, the simulator
// and replay sources do not use them.
type Config struct {
	Device      string        `yaml:"device"`       // device serial number or replay file
	Mode        tttr.Mode     `yaml:"mode"`         // T2 or T3
	Binning     int           `yaml:"binning"`      // T3 only
	Offset      int           `yaml:"offset"`       // T3 only, in ns
	AcqTime     time.Duration `yaml:"tacq"`         // measurement time
	SyncDivider int           `yaml:"sync-divider"` // sync input divider
	Sync        Trigger       `yaml:"sync"`
	Input       Trigger       `yaml:"input"` // applied to all input channels

	Channels   int     `yaml:"channels"`    // number of input channels
	Resolution float64 `yaml:"resolution"`  // base resolution, in ps
	SyncPeriod float64 `yaml:"sync-period"` // sync period, in s (T3 only)

	Records    int64 `yaml:"records,omitempty"`     // declared number of records, 0: unbounded
	BufferSize int   `yaml:"buffer-size,omitempty"` // records per FIFO poll
}

// DefaultConfig returns the default acquisition parameters.
func DefaultConfig() Config {
	return Config{
		Mode:        tttr.T3,
		Binning:     4,
		Offset:      0,
		AcqTime:     500 * time.Millisecond,
		SyncDivider: 1,
		Sync: Trigger{
			Edge:   0,
			Level:  -50,
			Offset: 0,
		},
		Input: Trigger{
			Edge:   0,
			Level:  -50,
			Offset: 5000,
		},
		Channels:   4,
		Resolution: 5,
		SyncPeriod: 50e-9,
		BufferSize: DefaultBufferSize,
	}
}

// LoadConfig loads acquisition parameters from the named YAML file.
// Parameters missing from the file take their default value.
func LoadConfig(fname string) (Config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return Config{}, xerrors.Errorf("acq: could not read config file %q: %w", fname, err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("acq: could not decode config file %q: %w", fname, err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, xerrors.Errorf("acq: invalid config file %q: %w", fname, err)
	}

	return cfg, nil
}

// Save writes the acquisition parameters to the named YAML file.
func (cfg Config) Save(fname string) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return xerrors.Errorf("acq: could not encode config: %w", err)
	}

	err = os.WriteFile(fname, raw, 0644)
	if err != nil {
		return xerrors.Errorf("acq: could not write config file %q: %w", fname, err)
	}
	return nil
}

// Validate checks the acquisition parameters are within the device limits.
func (cfg Config) Validate() error {
	if !cfg.Mode.Valid() {
		return xerrors.Errorf("acq: invalid mode %v: %w", cfg.Mode, tttr.ErrMalformedMode)
	}

	type check struct {
		name     string
		v        int64
		min, max int64
	}

	checks := []check{
		{"channels", int64(cfg.Channels), 1, MaxChannels},
		{"tacq", int64(cfg.AcqTime), int64(MinAcqTime), int64(MaxAcqTime)},
		{"sync-divider", int64(cfg.SyncDivider), MinSyncDivider, MaxSyncDivider},
		{"sync.edge", int64(cfg.Sync.Edge), 0, 1},
		{"sync.level", int64(cfg.Sync.Level), MinTrgLevel, MaxTrgLevel},
		{"sync.offset", int64(cfg.Sync.Offset), MinChanOffset, MaxChanOffset},
		{"input.edge", int64(cfg.Input.Edge), 0, 1},
		{"input.level", int64(cfg.Input.Level), MinTrgLevel, MaxTrgLevel},
		{"input.offset", int64(cfg.Input.Offset), MinChanOffset, MaxChanOffset},
		{"records", cfg.Records, 0, 1<<63 - 1},
		{"buffer-size", int64(cfg.BufferSize), 1, DefaultBufferSize},
	}
	if cfg.Mode == tttr.T3 {
		checks = append(checks,
			check{"binning", int64(cfg.Binning), 0, MaxBinSteps - 1},
			check{"offset", int64(cfg.Offset), 0, MaxOffset},
		)
	}

	for _, c := range checks {
		if c.v < c.min || c.max < c.v {
			return xerrors.Errorf("acq: %s=%d out of range [%d, %d]", c.name, c.v, c.min, c.max)
		}
	}

	if cfg.Resolution <= 0 {
		return xerrors.Errorf("acq: invalid resolution %g ps", cfg.Resolution)
	}
	if cfg.Mode == tttr.T3 && cfg.SyncPeriod <= 0 {
		return xerrors.Errorf("acq: invalid sync period %g s", cfg.SyncPeriod)
	}

	return nil
}

// Options returns the acquisition options described by this configuration.
func (cfg Config) Options() []Option {
	opts := []Option{WithRecords(cfg.Records)}
	if cfg.BufferSize > 0 {
		opts = append(opts, WithBufferSize(cfg.BufferSize))
	}
	return opts
}
