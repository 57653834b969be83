// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-runs lists the acquisition runs recorded in the run registry.
//
// Usage: tttr-runs [OPTIONS]
//
// Example:
//
//	$> tttr-runs -db=picoq -dev=1044000
//	$> tttr-runs -last
package main // import "github.com/go-lpc/picoq/cmd/tttr-runs"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/picoq/runlog"
)

func main() {
	log.SetPrefix("tttr-runs: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "picoq", "name of the run registry database")
		dev    = flag.String("dev", "", "only list runs of that device")
		last   = flag.Bool("last", false, "only display the last recorded run")
	)

	flag.Parse()

	db, err := runlog.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open run registry: %+v", err)
	}
	defer db.Close()

	err = doQuery(os.Stdout, db, *dev, *last)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(w io.Writer, db *runlog.DB, dev string, last bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if last {
		run, err := db.LastRun(ctx)
		if err != nil {
			return fmt.Errorf("could not get last run: %w", err)
		}
		return display(w, []runlog.Run{run})
	}

	runs, err := db.Runs(ctx, dev)
	if err != nil {
		return fmt.Errorf("could not get runs: %w", err)
	}
	return display(w, runs)
}

func display(w io.Writer, runs []runlog.Run) error {
	_, err := fmt.Fprintf(w, "%6s %-12s %-4s %-20s %10s %12s %12s %10s %10s %s\n",
		"run", "device", "mode", "start", "duration",
		"records", "photons", "markers", "overflows", "status",
	)
	if err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	for _, run := range runs {
		_, err = fmt.Fprintf(w, "%6d %-12s %-4v %-20s %10v %12d %12d %10d %10d %s\n",
			run.ID, run.Device, run.Mode,
			run.Start.UTC().Format(time.RFC3339),
			run.Stop.Sub(run.Start).Round(time.Millisecond),
			run.Records, run.Photons, run.Markers, run.Overflows,
			run.Status,
		)
		if err != nil {
			return fmt.Errorf("could not write run %d: %w", run.ID, err)
		}
	}
	return nil
}
