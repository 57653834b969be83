// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-boot (re)starts one tttr-srv process per acquisition
// configuration file, optionally monitoring their resources usage.
//
// Usage: tttr-boot [OPTIONS] cfg1.yaml [cfg2.yaml [...]]
//
// Example:
//
//	$> tttr-boot -pmon -freq=2s ./hh400.yaml ./mh150.yaml
package main // import "github.com/go-lpc/picoq/cmd/tttr-boot"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
		doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")
		doKill = flag.Bool("kill", false, "kill already running servers")
		srv    = flag.String("srv", "tttr-srv", "path to the acquisition server")
		dir    = flag.String("dir", os.Getenv("PICOQ_LOGDIR"), "directory for log files")
	)

	flag.Parse()

	log.SetPrefix("tttr-boot: ")
	log.SetFlags(0)

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing acquisition configuration file(s)")
	}

	if *doKill {
		killall(*srv)
	}

	cmds := make([]*exec.Cmd, flag.NArg())
	for i, cfg := range flag.Args() {
		cmds[i] = exec.Command(*srv, cfg)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	err := run(*doMon, *doFreq, cmds, *dir, stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func killall(srv string) {
	name := filepath.Base(srv)
	kill := exec.Command("killall", name)
	kill.Stderr = os.Stderr
	kill.Stdout = os.Stdout
	err := kill.Run()
	if err != nil {
		log.Printf("could not kill %q: %+v", name, err)
	}
}

func run(doMon bool, freq time.Duration, cmds []*exec.Cmd, dir string, stop chan os.Signal) error {
	if dir == "" {
		dir = "/var/log/picoq"
	}

	var (
		grp  errgroup.Group
		kill = make(chan int)
	)

	for i := range cmds {
		cmd := cmds[i]
		name := filepath.Base(cmd.Path) + "-" + strconv.Itoa(i)
		grp.Go(func() error {
			return start(name, cmd, dir, kill, doMon, freq)
		})
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stop:
			close(kill)
		case <-done:
		}
	}()

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not boot acquisition servers: %w", err)
	}
	return nil
}

func start(name string, cmd *exec.Cmd, dir string, kill chan int, doMon bool, freq time.Duration) error {
	out, err := os.Create(filepath.Join(dir, name+".log"))
	if err != nil {
		return fmt.Errorf("could not create output log file for %q: %w", name, err)
	}
	defer out.Close()

	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("starting %q...", name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(filepath.Join(dir, name+"-pmon.log"))
		if err != nil {
			return fmt.Errorf("could not create pmon log file for %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			err := p.Run()
			if err != nil {
				log.Printf("could not monitor %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error, 1)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-kill:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %w", name, err)
		}
		<-errch
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}
