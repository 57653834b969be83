// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tttr-dump decodes and displays raw TTTR record files.
//
// Usage: tttr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> tttr-dump -mode=t3 -res=80 -sync=12.5e-9 ./testdata/t3.raw
//	ev chn ttag/s dtime/ps
//
//	CH  1 0.00000001    40000
//	CH  2 0.00000005     8000
//	MK  2 0.00001280
//	[...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/picoq/acq"
	"github.com/go-lpc/picoq/sink"
	"github.com/go-lpc/picoq/tttr"
)

func main() {
	log.SetPrefix("tttr-dump: ")
	log.SetFlags(0)

	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("%+v", err)
	}
}

func xmain(w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("tttr-dump", flag.ContinueOnError)
		mode = tttr.T3
		res  = fset.Float64("res", 5, "base resolution in ps")
		sync = fset.Float64("sync", 50e-9, "sync period in s (T3 only)")
		nrec = fset.Int64("n", 0, "declared number of records per file (0: whole file)")
	)
	fset.TextVar(&mode, "mode", tttr.T3, "acquisition mode (t2|t3)")

	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), `tttr-dump decodes and displays raw TTTR record files.

Usage: tttr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> tttr-dump -mode=t3 -res=80 -sync=12.5e-9 ./testdata/t3.raw
 ev chn ttag/s dtime/ps

 CH  1 0.00000001    40000
 CH  2 0.00000005     8000
 MK  2 0.00001280
 [...]

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return err
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing path to input TTTR file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, mode, *res, *sync, *nrec)
		if err != nil {
			return fmt.Errorf("could not dump file %q: %w", fname, err)
		}
	}

	return nil
}

func process(w io.Writer, fname string, mode tttr.Mode, res, sync float64, nrec int64) error {
	src, err := acq.OpenFile(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer src.Close()

	txt, err := sink.NewText(w, mode, res, sync)
	if err != nil {
		return fmt.Errorf("could not create text sink: %w", err)
	}
	defer txt.Flush()

	dec, err := tttr.NewDecoder(mode, txt)
	if err != nil {
		return fmt.Errorf("could not create decoder: %w", err)
	}

	run, err := acq.New(
		src, dec,
		acq.WithRecords(nrec),
		acq.WithLogger(log.New(io.Discard, "acq: ", 0)),
	)
	if err != nil {
		return fmt.Errorf("could not create acquisition: %w", err)
	}

	err = txt.WriteHeader()
	if err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	_, err = run.Run(context.Background())
	if err != nil {
		return fmt.Errorf("could not decode records: %w", err)
	}

	err = txt.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	return nil
}
