// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"context"
	"errors"
	"testing"

	"github.com/go-lpc/picoq/tttr"
)

func newSimAcq(t *testing.T, cfg SimConfig, opts ...Option) *Acquisition {
	t.Helper()
	sim, err := NewSim(cfg)
	if err != nil {
		t.Fatalf("could not create simulator: %+v", err)
	}
	acq, err := New(sim, newTestDecoder(t, cfg.Mode, nil), append([]Option{quiet(), WithBufferSize(512)}, opts...)...)
	if err != nil {
		t.Fatalf("could not create acquisition: %+v", err)
	}
	return acq
}

func TestGroup(t *testing.T) {
	grp, err := NewGroup(
		newSimAcq(t, SimConfig{Mode: tttr.T2, Seed: 1, Records: 3000, Channels: 2, Chunk: 100}),
		newSimAcq(t, SimConfig{Mode: tttr.T3, Seed: 2, Records: 5000, Channels: 4, Chunk: 300}),
		newSimAcq(t, SimConfig{Mode: tttr.T3, Seed: 3, Records: 1000, Channels: 1, Stall: 2}),
	)
	if err != nil {
		t.Fatalf("could not create group: %+v", err)
	}
	if got, want := grp.Len(), 3; got != want {
		t.Fatalf("invalid group size: got=%d, want=%d", got, want)
	}

	sums, err := grp.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run group: %+v", err)
	}

	for i, want := range []int64{3000, 5000, 1000} {
		if got := sums[i].Records; got != want {
			t.Fatalf("acq[%d]: invalid number of records: got=%d, want=%d", i, got, want)
		}
		if got := sums[i].Stats.Records; got != uint64(want) {
			t.Fatalf("acq[%d]: invalid number of decoded records: got=%d, want=%d", i, got, want)
		}
	}
}

func TestGroupFailure(t *testing.T) {
	grp, err := NewGroup(
		// runs until canceled.
		newSimAcq(t, SimConfig{Mode: tttr.T3, Seed: 1, Records: 1 << 62, Channels: 2, Chunk: 10}),
		newSimAcq(t, SimConfig{Mode: tttr.T2, Seed: 2, Records: 1000, Channels: 2, Chunk: 10, FIFOFullAt: 100}),
	)
	if err != nil {
		t.Fatalf("could not create group: %+v", err)
	}

	sums, err := grp.Run(context.Background())
	if !errors.Is(err, ErrFIFOFull) {
		t.Fatalf("invalid error: %+v", err)
	}
	if !sums[0].Aborted {
		t.Fatalf("acquisition 0 should have been aborted: %+v", sums[0])
	}
	if sums[1].Aborted {
		t.Fatalf("acquisition 1 should have failed, not aborted: %+v", sums[1])
	}
}

func TestNewGroup(t *testing.T) {
	dec := newTestDecoder(t, tttr.T2, nil)
	a1, err := New(&fakeSource{}, dec, quiet())
	if err != nil {
		t.Fatalf("could not create acquisition: %+v", err)
	}
	a2, err := New(&fakeSource{}, dec, quiet())
	if err != nil {
		t.Fatalf("could not create acquisition: %+v", err)
	}

	_, err = NewGroup(a1, a2)
	if got, want := err.Error(), "acq: acquisitions 0 and 1 share the same decoder"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}

	_, err = NewGroup(a1, nil)
	if got, want := err.Error(), "acq: invalid nil acquisition 1"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}
