// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-lpc/picoq/acq"
	"gopkg.in/yaml.v3"
)

const simDevice = "sim"

type simConfig struct {
	Seed        int64 `yaml:"seed"`
	Records     int64 `yaml:"records"`
	Chunk       int   `yaml:"chunk"`
	Stall       int   `yaml:"stall"`
	MarkerEvery int   `yaml:"marker-every"`
	SyncEvery   int   `yaml:"sync-every"`
}

type config struct {
	Acq acq.Config `yaml:"acquisition"`
	Sim simConfig  `yaml:"simulation"`

	Batch   int    `yaml:"batch"`   // number of events per /events frame
	Queue   int    `yaml:"queue"`   // number of queued /events frames
	Metrics string `yaml:"metrics"` // address of the Prometheus endpoint, empty: disabled
	RunLog  string `yaml:"runlog"`  // name of the run registry database, empty: disabled
	Raw     string `yaml:"raw"`     // directory for raw record captures (one file per run), empty: disabled
	Alert   bool   `yaml:"alert"`   // send mail alerts on failed runs
}

func defaultConfig() config {
	return config{
		Acq: acq.DefaultConfig(),
		Sim: simConfig{
			Seed:        1234,
			Records:     1 << 20,
			Chunk:       1 << 12,
			MarkerEvery: 16,
			SyncEvery:   8,
		},
		Batch: 1024,
		Queue: 64,
	}
}

func loadConfig(fname string) (config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return config{}, fmt.Errorf("could not read config file %q: %w", fname, err)
	}

	cfg := defaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return config{}, fmt.Errorf("could not decode config file %q: %w", fname, err)
	}

	err = cfg.Acq.Validate()
	if err != nil {
		return config{}, fmt.Errorf("invalid acquisition config: %w", err)
	}

	switch {
	case cfg.Acq.Device == "":
		return config{}, fmt.Errorf("missing acquisition device")
	case cfg.Batch <= 0:
		return config{}, fmt.Errorf("invalid events batch size %d", cfg.Batch)
	case cfg.Queue <= 0:
		return config{}, fmt.Errorf("invalid events queue size %d", cfg.Queue)
	}

	return cfg, nil
}

func (cfg config) simulation() acq.SimConfig {
	return acq.SimConfig{
		Mode:        cfg.Acq.Mode,
		Seed:        cfg.Sim.Seed,
		Records:     cfg.Sim.Records,
		Channels:    cfg.Acq.Channels,
		Chunk:       cfg.Sim.Chunk,
		Stall:       cfg.Sim.Stall,
		MarkerEvery: cfg.Sim.MarkerEvery,
		SyncEvery:   cfg.Sim.SyncEvery,
	}
}
