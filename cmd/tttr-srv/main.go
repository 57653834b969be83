// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-srv starts a TDAQ server driving a TTTR acquisition.
//
// Usage: tttr-srv [TDAQ-OPTIONS] CONFIG.yaml
//
// The acquisition reads records from a simulated device (device: sim)
// or replays a raw record file, decodes them and publishes the decoded
// events on the /events output.
package main // import "github.com/go-lpc/picoq/cmd/tttr-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/picoq"
)

func main() {
	cmd := flags.New()
	if len(cmd.Args) != 1 {
		log.Fatalf("missing path to tttr-srv configuration file")
	}

	if v, _ := picoq.Version(); v != "" {
		log.Printf("tttr-srv: picoq version %s", v)
	}

	dev := newServer("tttr-srv", cmd.Args[0])

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/events", dev.events)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
