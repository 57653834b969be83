// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skipf("could not find sleep command: %+v", err)
	}

	for _, tc := range []struct {
		name  string
		delay string
		mon   bool
		stop  bool
	}{
		{name: "simple", delay: "1"},
		{name: "simple-pmon", delay: "2", mon: true},
		{name: "simple-stop", delay: "30", stop: true},
		{name: "simple-stop-pmon", delay: "30", stop: true, mon: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir, err := os.MkdirTemp("", "tttr-boot-")
			if err != nil {
				t.Fatalf("could not create tmpdir: %+v", err)
			}
			defer os.RemoveAll(dir)

			cmds := []*exec.Cmd{
				exec.Command(sleep, tc.delay),
				exec.Command(sleep, tc.delay),
			}

			stop := make(chan os.Signal, 1)
			if tc.stop {
				go func() {
					time.Sleep(1 * time.Second)
					stop <- os.Interrupt
				}()
			}

			beg := time.Now()
			err = run(tc.mon, 500*time.Millisecond, cmds, dir, stop)
			if err != nil {
				t.Fatalf("could not run processes: %+v", err)
			}
			if tc.stop && time.Since(beg) > 20*time.Second {
				t.Fatalf("processes were not stopped")
			}

			for _, name := range []string{"sleep-0.log", "sleep-1.log"} {
				_, err := os.Stat(filepath.Join(dir, name))
				if err != nil {
					t.Fatalf("missing log file %q: %+v", name, err)
				}
			}
		})
	}
}

func TestRunFailure(t *testing.T) {
	dir, err := os.MkdirTemp("", "tttr-boot-")
	if err != nil {
		t.Fatalf("could not create tmpdir: %+v", err)
	}
	defer os.RemoveAll(dir)

	cmds := []*exec.Cmd{
		exec.Command(filepath.Join(dir, "not-there")),
	}
	err = run(false, time.Second, cmds, dir, make(chan os.Signal, 1))
	if err == nil {
		t.Fatalf("expected an error")
	}
}
