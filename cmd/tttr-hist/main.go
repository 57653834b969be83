// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tttr-hist histograms the photons of a T3 raw record file per channel
// and delay bin.
//
// Usage: tttr-hist [OPTIONS] FILE
//
// Example:
//
//	$> tttr-hist -chans=4 -o histo.txt ./testdata/t3.raw
//	$> tttr-hist -chans=4 -o histo.yoda ./testdata/t3.raw
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/picoq/acq"
	"github.com/go-lpc/picoq/sink"
	"github.com/go-lpc/picoq/tttr"
)

func main() {
	log.SetPrefix("tttr-hist: ")
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
		fset  = flag.NewFlagSet("tttr-hist", flag.ContinueOnError)
		mode  = tttr.T3
		chans = fset.Int("chans", 4, "number of input channels")
		bins  = fset.Int("bins", tttr.NumDTimeBins, "number of delay bins")
		nrec  = fset.Int64("n", 0, "declared number of records (0: whole file)")
		oname = fset.String("o", "", "output file (.txt or .yoda, default: stdout)")
	)
	fset.TextVar(&mode, "mode", tttr.T3, "acquisition mode (only t3 is supported)")

	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), `tttr-hist histograms the photons of a T3 raw record file.

Usage: tttr-hist [OPTIONS] FILE

Example:

 $> tttr-hist -chans=4 -o histo.txt ./testdata/t3.raw
 $> tttr-hist -chans=4 -o histo.yoda ./testdata/t3.raw

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return err
	}

	if fset.NArg() != 1 {
		fset.Usage()
		return fmt.Errorf("missing path to input TTTR file")
	}

	hist, err := process(fset.Arg(0), mode, *chans, *bins, *nrec)
	if err != nil {
		return fmt.Errorf("could not histogram file %q: %w", fset.Arg(0), err)
	}
	log.Printf("photons: %d", hist.Entries())

	if *oname == "" {
		_, err = hist.WriteTo(w)
		if err != nil {
			return fmt.Errorf("could not write histogram: %w", err)
		}
		return nil
	}

	return save(*oname, hist)
}

func process(fname string, mode tttr.Mode, nchans, nbins int, nrec int64) (*sink.Histogram, error) {
	if mode != tttr.T3 {
		return nil, fmt.Errorf("histogramming requires T3 records (mode=%v): %w", mode, tttr.ErrMalformedMode)
	}

	hist, err := sink.NewHistogram(nchans, nbins)
	if err != nil {
		return nil, fmt.Errorf("could not create histogram: %w", err)
	}

	src, err := acq.OpenFile(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer src.Close()

	dec, err := tttr.NewDecoder(mode, hist)
	if err != nil {
		return nil, fmt.Errorf("could not create decoder: %w", err)
	}

	run, err := acq.New(
		src, dec,
		acq.WithRecords(nrec),
		acq.WithLogger(log.New(io.Discard, "acq: ", 0)),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create acquisition: %w", err)
	}

	_, err = run.Run(context.Background())
	if err != nil {
		return nil, fmt.Errorf("could not decode records: %w", err)
	}

	return hist, nil
}

func save(oname string, hist *sink.Histogram) error {
	f, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	switch filepath.Ext(oname) {
	case ".yoda":
		raw, err := hist.MarshalYODA()
		if err != nil {
			return fmt.Errorf("could not marshal histogram to YODA: %w", err)
		}
		_, err = f.Write(raw)
		if err != nil {
			return fmt.Errorf("could not write YODA file: %w", err)
		}
	default:
		_, err = hist.WriteTo(f)
		if err != nil {
			return fmt.Errorf("could not write histogram: %w", err)
		}
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	return nil
}
