// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/picoq/internal/rformat"
	"github.com/go-lpc/picoq/tttr"
)

func TestHist(t *testing.T) {
	tmp, err := os.MkdirTemp("", "picoq-tttr-hist-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "t3.raw")
	{
		f, err := os.Create(fname)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}
		defer f.Close()

		err = rformat.NewEncoder(f).Encode([]uint32{
			uint32(tttr.NewT3Record(0, 0, 1, 1)),
			uint32(tttr.NewT3Record(0, 0, 1, 2)),
			uint32(tttr.NewT3Record(0, 1, 3, 3)),
			uint32(tttr.NewOverflow(tttr.T3, 1)),
			uint32(tttr.NewT3Record(1, 4, 0, 0)),
			uint32(tttr.NewT3Record(0, 1, 0, 4)),
			uint32(tttr.NewT3Record(0, 2, 2, 5)), // outside the 2 histogrammed channels
		})
		if err != nil {
			t.Fatalf("could not encode records: %+v", err)
		}
		err = f.Close()
		if err != nil {
			t.Fatalf("could not close raw file: %+v", err)
		}
	}

	t.Run("stdout", func(t *testing.T) {
		out := new(strings.Builder)
		err := xmain(out, []string{"-chans=2", "-bins=4", fname})
		if err != nil {
			t.Fatalf("could not run tttr-hist: %+v", err)
		}

		want := "" +
			"     0      1 \n" +
			"     2      0 \n" +
			"     0      0 \n" +
			"     0      1 \n"
		if got := out.String(); got != want {
			t.Fatalf("invalid histogram:\ngot:\n%s\nwant:\n%s\n", got, want)
		}
	})

	t.Run("txt", func(t *testing.T) {
		oname := filepath.Join(tmp, "histo.txt")
		err := xmain(nil, []string{"-chans=2", "-bins=2", "-o", oname, fname})
		if err != nil {
			t.Fatalf("could not run tttr-hist: %+v", err)
		}
		got, err := os.ReadFile(oname)
		if err != nil {
			t.Fatalf("could not read output file: %+v", err)
		}
		if want := "     0      1 \n     2      0 \n"; string(got) != want {
			t.Fatalf("invalid histogram:\ngot:\n%s\nwant:\n%s\n", got, want)
		}
	})

	t.Run("yoda", func(t *testing.T) {
		oname := filepath.Join(tmp, "histo.yoda")
		err := xmain(nil, []string{"-chans=2", "-bins=16", "-o", oname, fname})
		if err != nil {
			t.Fatalf("could not run tttr-hist: %+v", err)
		}
		got, err := os.ReadFile(oname)
		if err != nil {
			t.Fatalf("could not read output file: %+v", err)
		}
		if !strings.Contains(string(got), "BEGIN YODA_HISTO2D") {
			t.Fatalf("invalid YODA file:\n%s", got)
		}
	})

	t.Run("t2", func(t *testing.T) {
		_, err := process(fname, tttr.T2, 2, 4, 0)
		if !errors.Is(err, tttr.ErrMalformedMode) {
			t.Fatalf("invalid error: %+v", err)
		}
	})

	t.Run("too-many-bins", func(t *testing.T) {
		_, err := process(fname, tttr.T3, 2, tttr.NumDTimeBins+1, 0)
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("no-file", func(t *testing.T) {
		err := xmain(nil, nil)
		if err == nil || err.Error() != "missing path to input TTTR file" {
			t.Fatalf("invalid error: %+v", err)
		}
	})
}
