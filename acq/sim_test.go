// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-lpc/picoq/internal/rformat"
	"github.com/go-lpc/picoq/tttr"
)

// monotonic is a sink checking decoded times never decrease.
type monotonic struct {
	last  uint64
	n     int
	marks int
}

func (m *monotonic) Consume(evt tttr.Event) error {
	if evt.Time < m.last {
		return errors.New("time went backward")
	}
	m.last = evt.Time
	m.n++
	if evt.Kind == tttr.Marker {
		m.marks++
	}
	return nil
}

func TestSim(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  SimConfig
	}{
		{
			name: "t2",
			cfg: SimConfig{
				Mode: tttr.T2, Seed: 1234, Records: 20000, Channels: 4,
				Chunk: 1000, Stall: 7, MarkerEvery: 2, SyncEvery: 10,
			},
		},
		{
			name: "t3",
			cfg: SimConfig{
				Mode: tttr.T3, Seed: 42, Records: 20000, Channels: 8,
				Chunk: 333, Stall: 3, MarkerEvery: 5,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sim, err := NewSim(tc.cfg)
			if err != nil {
				t.Fatalf("could not create simulator: %+v", err)
			}

			sink := new(monotonic)
			acq, err := New(sim, newTestDecoder(t, tc.cfg.Mode, sink), quiet(), WithBufferSize(4096))
			if err != nil {
				t.Fatalf("could not create acquisition: %+v", err)
			}

			sum, err := acq.Run(context.Background())
			if err != nil {
				t.Fatalf("could not run acquisition: %+v", err)
			}

			if got, want := sum.Records, tc.cfg.Records; got != want {
				t.Fatalf("invalid number of records: got=%d, want=%d", got, want)
			}
			if got, want := sim.Produced(), tc.cfg.Records; got != want {
				t.Fatalf("invalid number of produced records: got=%d, want=%d", got, want)
			}
			st := sum.Stats
			if got, want := st.Records, uint64(tc.cfg.Records); got != want {
				t.Fatalf("invalid number of decoded records: got=%d, want=%d", got, want)
			}
			if st.Overflows == 0 || st.Markers == 0 || st.Photons == 0 {
				t.Fatalf("invalid stats: %+v", st)
			}
			if st.Ignored != 0 {
				t.Fatalf("simulated stream should not hold ignored records: %+v", st)
			}
			if got, want := st.Records, st.Photons+st.Markers+st.Overflows; got != want {
				t.Fatalf("records/events mismatch: %d != %d", got, want)
			}
			if got, want := uint64(sink.n), st.Photons+st.Markers; got != want {
				t.Fatalf("invalid number of consumed events: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestSimDeterministic(t *testing.T) {
	read := func() []uint32 {
		sim, err := NewSim(SimConfig{Mode: tttr.T3, Seed: 7, Records: 500, Channels: 2, MarkerEvery: 1})
		if err != nil {
			t.Fatalf("could not create simulator: %+v", err)
		}
		buf := make([]uint32, 1000)
		n, err := sim.ReadFIFO(buf)
		if err != nil {
			t.Fatalf("could not read: %+v", err)
		}
		return buf[:n]
	}

	a := read()
	b := read()
	if len(a) != 500 || len(b) != 500 {
		t.Fatalf("invalid number of records: %d, %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("record %d differs: 0x%08x != 0x%08x", i, a[i], b[i])
		}
	}
}

func TestSimFIFOFull(t *testing.T) {
	sim, err := NewSim(SimConfig{
		Mode: tttr.T2, Records: 1000, Channels: 1, Chunk: 100, FIFOFullAt: 250,
	})
	if err != nil {
		t.Fatalf("could not create simulator: %+v", err)
	}

	acq, err := New(sim, newTestDecoder(t, tttr.T2, nil), quiet())
	if err != nil {
		t.Fatalf("could not create acquisition: %+v", err)
	}

	sum, err := acq.Run(context.Background())
	if !errors.Is(err, ErrFIFOFull) {
		t.Fatalf("invalid error: %+v", err)
	}
	if got, want := sum.Records, int64(300); got != want {
		t.Fatalf("invalid number of records: got=%d, want=%d", got, want)
	}
}

func TestNewSim(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  SimConfig
		err  error
	}{
		{"mode", SimConfig{Channels: 1}, tttr.ErrMalformedMode},
		{"records", SimConfig{Mode: tttr.T2, Channels: 1, Records: -1}, nil},
		{"channels", SimConfig{Mode: tttr.T2}, nil},
		{"too-many-channels", SimConfig{Mode: tttr.T3, Channels: 64}, nil},
		{"chunk", SimConfig{Mode: tttr.T3, Channels: 1, Chunk: -1}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSim(tc.cfg)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Fatalf("invalid error: %+v", err)
			}
		})
	}
}

func TestFileSource(t *testing.T) {
	tmp, err := os.MkdirTemp("", "picoq-acq-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	const nrecs = 5000
	sim, err := NewSim(SimConfig{
		Mode: tttr.T3, Seed: 99, Records: nrecs, Channels: 4, MarkerEvery: 3,
	})
	if err != nil {
		t.Fatalf("could not create simulator: %+v", err)
	}
	words := make([]uint32, nrecs)
	n, err := sim.ReadFIFO(words)
	if err != nil || n != nrecs {
		t.Fatalf("could not generate records: n=%d, err=%+v", n, err)
	}

	// reference decoding.
	ref := newTestDecoder(t, tttr.T3, nil)
	err = ref.Decode(words, nrecs)
	if err != nil {
		t.Fatalf("could not decode reference stream: %+v", err)
	}

	fname := filepath.Join(tmp, "run.raw")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	err = rformat.NewEncoder(f).Encode(words)
	if err != nil {
		t.Fatalf("could not encode records: %+v", err)
	}
	// append a truncated record.
	_, err = f.Write([]byte{0xff, 0xff})
	if err != nil {
		t.Fatalf("could not write truncated record: %+v", err)
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}

	t.Run("complete", func(t *testing.T) {
		src, err := OpenFile(fname)
		if err != nil {
			t.Fatalf("could not open replay file: %+v", err)
		}
		defer src.Close()

		if got, want := src.Len(), int64(nrecs); got != want {
			t.Fatalf("invalid number of records: got=%d, want=%d", got, want)
		}

		acq, err := New(src, newTestDecoder(t, tttr.T3, nil), quiet(), WithBufferSize(1024), WithRecords(nrecs))
		if err != nil {
			t.Fatalf("could not create acquisition: %+v", err)
		}

		sum, err := acq.Run(context.Background())
		if err != nil {
			t.Fatalf("could not replay file: %+v", err)
		}
		if got, want := sum.Stats, ref.Stats(); got != want {
			t.Fatalf("invalid stats:\ngot= %+v\nwant=%+v", got, want)
		}
		if got, want := acq.Decoder().Overflow(), ref.Overflow(); got != want {
			t.Fatalf("invalid overflow correction: got=%d, want=%d", got, want)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		src, err := OpenFile(fname)
		if err != nil {
			t.Fatalf("could not open replay file: %+v", err)
		}
		defer src.Close()

		acq, err := New(src, newTestDecoder(t, tttr.T3, nil), quiet(), WithBufferSize(1024))
		if err != nil {
			t.Fatalf("could not create acquisition: %+v", err)
		}

		sum, err := acq.Run(context.Background())
		if !errors.Is(err, tttr.ErrShortInput) {
			t.Fatalf("invalid error: %+v", err)
		}
		if got, want := sum.Records, int64(nrecs); got != want {
			t.Fatalf("invalid number of records: got=%d, want=%d", got, want)
		}
		ctc, err := src.CTCStatus()
		if err != nil || !ctc {
			t.Fatalf("invalid CTC status: %v, %+v", ctc, err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(tmp, "not-there.raw"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("invalid error: %+v", err)
		}
	})
}

func TestRawOutput(t *testing.T) {
	tmp, err := os.MkdirTemp("", "picoq-acq-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	collect := func(evts *[]tttr.Event) tttr.Sink {
		return tttr.SinkFunc(func(evt tttr.Event) error {
			*evts = append(*evts, evt)
			return nil
		})
	}

	for _, mode := range []tttr.Mode{tttr.T2, tttr.T3} {
		t.Run(mode.String(), func(t *testing.T) {
			fname := filepath.Join(tmp, "capture-"+mode.String()+".raw")
			f, err := os.Create(fname)
			if err != nil {
				t.Fatalf("could not create capture file: %+v", err)
			}
			defer f.Close()

			sim, err := NewSim(SimConfig{
				Mode: mode, Seed: 99, Records: 5000, Channels: 3,
				Chunk: 700, Stall: 2, MarkerEvery: 3, SyncEvery: 4,
			})
			if err != nil {
				t.Fatalf("could not create simulator: %+v", err)
			}

			var live []tttr.Event
			acq, err := New(sim, newTestDecoder(t, mode, collect(&live)), quiet(), WithRawOutput(f))
			if err != nil {
				t.Fatalf("could not create acquisition: %+v", err)
			}
			sum, err := acq.Run(context.Background())
			if err != nil {
				t.Fatalf("could not run acquisition: %+v", err)
			}
			err = f.Close()
			if err != nil {
				t.Fatalf("could not close capture file: %+v", err)
			}

			src, err := OpenFile(fname)
			if err != nil {
				t.Fatalf("could not open capture file: %+v", err)
			}
			defer src.Close()

			if got, want := src.Len(), sum.Records; got != want {
				t.Fatalf("invalid number of captured records: got=%d, want=%d", got, want)
			}

			var replay []tttr.Event
			acq, err = New(src, newTestDecoder(t, mode, collect(&replay)), quiet(), WithRecords(sum.Records))
			if err != nil {
				t.Fatalf("could not create replay acquisition: %+v", err)
			}
			rsum, err := acq.Run(context.Background())
			if err != nil {
				t.Fatalf("could not replay capture: %+v", err)
			}

			if got, want := rsum.Stats, sum.Stats; got != want {
				t.Fatalf("invalid replay stats:\ngot= %+v\nwant=%+v", got, want)
			}
			if len(live) == 0 || !reflect.DeepEqual(replay, live) {
				t.Fatalf("replayed events differ from acquired ones (%d vs %d events)", len(replay), len(live))
			}
		})
	}
}

func TestRawOutputError(t *testing.T) {
	sim, err := NewSim(SimConfig{Mode: tttr.T3, Seed: 1, Records: 100, Channels: 1})
	if err != nil {
		t.Fatalf("could not create simulator: %+v", err)
	}

	acq, err := New(sim, newTestDecoder(t, tttr.T3, nil), quiet(), WithRawOutput(failWriter{}))
	if err != nil {
		t.Fatalf("could not create acquisition: %+v", err)
	}
	sum, err := acq.Run(context.Background())
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := sum.Stats.Records, uint64(0); got != want {
		t.Fatalf("records decoded despite a raw output failure: %d", got)
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }
