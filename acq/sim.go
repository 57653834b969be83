// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"math/rand"

	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/xerrors"
)

// SimConfig configures a simulated device.
type SimConfig struct {
	Mode     tttr.Mode
	Seed     int64
	Records  int64 // total number of records produced
	Channels int   // number of input channels, in [1, 63]

	Chunk       int   // maximum number of records per FIFO read, 0: unlimited
	Stall       int   // every Stall-th FIFO read returns no data, 0: never
	MarkerEvery int   // a marker follows every MarkerEvery-th overflow record, 0: never
	SyncEvery   int   // T2 only: every SyncEvery-th record is a sync, 0: never
	FIFOFullAt  int64 // raise the FIFO-full flag after that many records, 0: never
}

// Sim is a simulated TTTR device producing well-formed record streams.
//
// Overflow records always precede the records they correct, and markers
// are emitted right after an overflow record with a zero time tag, so the
// decoded times are non-decreasing.
type Sim struct {
	cfg  SimConfig
	rnd  *rand.Rand
	wrap uint32

	tag   uint32 // current time tag (T2) or sync counter (T3)
	nofl  int    // number of overflow records produced
	nsync int    // number of records since last sync

	produced int64
	pending  []uint32
	reads    int
}

// NewSim creates a new simulated device.
func NewSim(cfg SimConfig) (*Sim, error) {
	var wrap uint32
	switch cfg.Mode {
	case tttr.T2:
		wrap = tttr.T2Wrap
	case tttr.T3:
		wrap = tttr.T3Wrap
	default:
		return nil, xerrors.Errorf("acq: invalid simulation mode %v: %w", cfg.Mode, tttr.ErrMalformedMode)
	}

	switch {
	case cfg.Records < 0:
		return nil, xerrors.Errorf("acq: invalid number of simulated records %d", cfg.Records)
	case cfg.Channels < 1 || 63 < cfg.Channels:
		return nil, xerrors.Errorf("acq: invalid number of simulated channels %d", cfg.Channels)
	case cfg.Chunk < 0, cfg.Stall < 0, cfg.MarkerEvery < 0, cfg.SyncEvery < 0, cfg.FIFOFullAt < 0:
		return nil, xerrors.Errorf("acq: invalid simulation parameters %+v", cfg)
	}

	return &Sim{
		cfg:  cfg,
		rnd:  rand.New(rand.NewSource(cfg.Seed)),
		wrap: wrap,
	}, nil
}

// Flags implements Source.
func (sim *Sim) Flags() (Flags, error) {
	var flags Flags
	if sim.cfg.FIFOFullAt > 0 && sim.produced >= sim.cfg.FIFOFullAt {
		flags |= FlagFIFOFull
	}
	return flags, nil
}

// ReadFIFO implements Source.
func (sim *Sim) ReadFIFO(buf []uint32) (int, error) {
	sim.reads++
	if sim.cfg.Stall > 0 && sim.reads%sim.cfg.Stall == 0 {
		return 0, nil
	}

	n := len(buf)
	if sim.cfg.Chunk > 0 && sim.cfg.Chunk < n {
		n = sim.cfg.Chunk
	}

	i := 0
	for i < n && sim.produced < sim.cfg.Records {
		if len(sim.pending) == 0 {
			sim.generate()
		}
		buf[i] = sim.pending[0]
		sim.pending = sim.pending[1:]
		sim.produced++
		i++
	}
	return i, nil
}

// CTCStatus implements Source.
// The acquisition time elapses once all the records were produced.
func (sim *Sim) CTCStatus() (bool, error) {
	return sim.produced >= sim.cfg.Records, nil
}

// Produced returns the number of records produced so far.
func (sim *Sim) Produced() int64 { return sim.produced }

func (sim *Sim) generate() {
	var step uint32
	switch sim.cfg.Mode {
	case tttr.T2:
		step = 1 + uint32(sim.rnd.Int63n(1<<20))
	case tttr.T3:
		step = uint32(sim.rnd.Int63n(64))
	}

	tag := sim.tag + step
	if tag >= sim.wrap {
		sim.pending = append(sim.pending, uint32(tttr.NewOverflow(sim.cfg.Mode, tag/sim.wrap)))
		tag %= sim.wrap
		sim.nofl++
		if sim.cfg.MarkerEvery > 0 && sim.nofl%sim.cfg.MarkerEvery == 0 {
			mk := 1 + uint32(sim.rnd.Intn(tttr.MaxMarker))
			sim.pending = append(sim.pending, uint32(sim.record(1, mk, 0)))
		}
	}
	sim.tag = tag

	sim.nsync++
	if sim.cfg.Mode == tttr.T2 && sim.cfg.SyncEvery > 0 && sim.nsync >= sim.cfg.SyncEvery {
		sim.nsync = 0
		sim.pending = append(sim.pending, uint32(tttr.NewT2Record(1, 0, tag)))
		return
	}

	ch := uint32(sim.rnd.Intn(sim.cfg.Channels))
	sim.pending = append(sim.pending, uint32(sim.record(0, ch, tag)))
}

func (sim *Sim) record(special, channel, tag uint32) tttr.Record {
	switch sim.cfg.Mode {
	case tttr.T2:
		return tttr.NewT2Record(special, channel, tag)
	default:
		dtime := uint32(sim.rnd.Intn(tttr.NumDTimeBins))
		if special != 0 {
			dtime = 0
		}
		return tttr.NewT3Record(special, channel, dtime, tag)
	}
}

var (
	_ Source = (*Sim)(nil)
)
