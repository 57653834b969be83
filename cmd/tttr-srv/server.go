// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/picoq/acq"
	"github.com/go-lpc/picoq/internal/alert"
	"github.com/go-lpc/picoq/runlog"
	"github.com/go-lpc/picoq/sink"
	"github.com/go-lpc/picoq/tttr"
)

type server struct {
	name  string
	fname string // configuration file
	msg   *log.Logger

	cfg  config
	met  *metrics
	http *http.Server
	db   *runlog.DB
	mail *alert.Mailer

	src  acq.Source
	acq  *acq.Acquisition
	cnt  *sink.Counter
	bat  *batcher
	raw  *os.File // raw records capture of the current run
	used bool     // whether the current source was already acquired from

	data chan []byte
}

func newServer(name, fname string) *server {
	return &server{
		name:  name,
		fname: fname,
		msg:   log.New(os.Stdout, "tttr-srv: ", 0),
		met:   newMetrics(),
		mail:  alert.FromEnv("tttr-srv"),
	}
}

func (srv *server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	err := srv.configure()
	if err != nil {
		ctx.Msg.Errorf("could not configure server: %+v", err)
		return err
	}
	ctx.Msg.Infof("configured %v acquisition on %q", srv.cfg.Acq.Mode, srv.cfg.Acq.Device)
	return nil
}

func (srv *server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	err := srv.initialize()
	if err != nil {
		ctx.Msg.Errorf("could not initialize acquisition: %+v", err)
		return err
	}
	return nil
}

func (srv *server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	err := srv.reset()
	if err != nil {
		ctx.Msg.Errorf("could not reset acquisition: %+v", err)
		return err
	}
	return nil
}

func (srv *server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if srv.acq == nil {
		return fmt.Errorf("acquisition not initialized")
	}
	return nil
}

func (srv *server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	cnts := srv.counts()
	ctx.Msg.Debugf("received /stop command... -> photons=%d markers=%d syncs=%d",
		cnts.Total(), cnts.Markers, cnts.Syncs,
	)
	return nil
}

func (srv *server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return srv.quit()
}

func (srv *server) events(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

func (srv *server) run(ctx tdaq.Context) error {
	sum, err := srv.acquire(ctx.Ctx)
	if err != nil {
		ctx.Msg.Errorf("acquisition failed: %+v", err)
		return err
	}
	ctx.Msg.Infof("acquisition done: records=%d photons=%d markers=%d overflows=%d aborted=%v",
		sum.Records, sum.Stats.Photons, sum.Stats.Markers, sum.Stats.Overflows, sum.Aborted,
	)
	return nil
}

func (srv *server) configure() error {
	cfg, err := loadConfig(srv.fname)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	srv.cfg = cfg
	srv.data = make(chan []byte, cfg.Queue)

	if cfg.Metrics != "" && srv.http == nil {
		err = srv.serveMetrics(cfg.Metrics)
		if err != nil {
			return fmt.Errorf("could not start metrics endpoint: %w", err)
		}
	}

	if cfg.RunLog != "" && srv.db == nil {
		db, err := runlog.Open(cfg.RunLog)
		if err != nil {
			return fmt.Errorf("could not open run registry: %w", err)
		}
		err = db.Init(context.Background())
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("could not initialize run registry: %w", err)
		}
		srv.db = db
	}

	if cfg.Alert && !srv.mail.Valid() {
		srv.msg.Printf("mail alerts enabled but credentials are missing")
	}

	return nil
}

func (srv *server) serveMetrics(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %q: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", srv.met.handler())
	srv.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.http.Serve(lis)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.msg.Printf("metrics endpoint failed: %+v", err)
		}
	}()
	srv.msg.Printf("serving metrics on %s", lis.Addr())
	return nil
}

func (srv *server) initialize() error {
	if srv.data == nil {
		return fmt.Errorf("server not configured")
	}
	return srv.open()
}

// open creates a fresh acquisition source, decoding chain and raw
// capture file, closing the previous ones.
func (srv *server) open() error {
	err := srv.reset()
	if err != nil {
		return err
	}

	var src acq.Source
	switch dev := srv.cfg.Acq.Device; dev {
	case simDevice:
		src, err = acq.NewSim(srv.cfg.simulation())
	default:
		src, err = acq.OpenFile(dev)
	}
	if err != nil {
		return fmt.Errorf("could not create acquisition source: %w", err)
	}

	srv.cnt = new(sink.Counter)
	srv.bat = newBatcher(srv.cfg.Batch, srv.data, srv.met.dropped.Inc)

	dec, err := tttr.NewDecoder(srv.cfg.Acq.Mode, sink.Multi(srv.cnt, srv.bat))
	if err != nil {
		closeSource(src)
		return fmt.Errorf("could not create decoder: %w", err)
	}

	opts := append(srv.cfg.Acq.Options(), acq.WithLogger(log.New(os.Stdout, "acq: ", 0)))
	if srv.cfg.Raw != "" {
		raw, err := createRaw(srv.cfg.Raw)
		if err != nil {
			closeSource(src)
			return fmt.Errorf("could not create raw capture file: %w", err)
		}
		srv.raw = raw
		opts = append(opts, acq.WithRawOutput(raw))
	}

	run, err := acq.New(src, dec, opts...)
	if err != nil {
		closeSource(src)
		return fmt.Errorf("could not create acquisition: %w", err)
	}

	srv.src = src
	srv.acq = run
	srv.used = false
	return nil
}

// createRaw creates the next free tttr-run-NNN.raw capture file in dir.
func createRaw(dir string) (*os.File, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}
	for i := 1; ; i++ {
		fname := filepath.Join(dir, fmt.Sprintf("tttr-run-%03d.raw", i))
		f, err := os.OpenFile(fname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		switch {
		case err == nil:
			return f, nil
		case errors.Is(err, fs.ErrExist):
			continue
		default:
			return nil, err
		}
	}
}

func closeSource(src acq.Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (srv *server) reset() error {
	err := closeSource(srv.src)
	if srv.raw != nil {
		if e := srv.raw.Close(); e != nil && err == nil {
			err = e
		}
	}
	srv.src = nil
	srv.acq = nil
	srv.cnt = nil
	srv.bat = nil
	srv.raw = nil
	srv.used = false
	if err != nil {
		return fmt.Errorf("could not close acquisition source: %w", err)
	}
	return nil
}

func (srv *server) counts() sink.Counts {
	if srv.cnt == nil {
		return sink.Counts{}
	}
	return srv.cnt.Counts()
}

// acquire runs one acquisition session and records its outcome.
func (srv *server) acquire(ctx context.Context) (acq.Summary, error) {
	if srv.acq == nil {
		return acq.Summary{}, fmt.Errorf("acquisition not initialized")
	}
	if srv.used {
		// a previous run consumed the source.
		err := srv.open()
		if err != nil {
			return acq.Summary{}, fmt.Errorf("could not prepare new run: %w", err)
		}
	}
	srv.used = true

	srv.cnt.Reset()
	srv.met.running.Set(1)
	sum, err := srv.acq.Run(ctx)
	srv.met.running.Set(0)

	if e := srv.bat.flush(); e != nil && err == nil {
		err = fmt.Errorf("could not flush events: %w", e)
	}
	if srv.raw != nil {
		if e := srv.raw.Close(); e != nil && err == nil {
			err = fmt.Errorf("could not close raw capture file: %w", e)
		}
		srv.msg.Printf("raw records written to %q", srv.raw.Name())
		srv.raw = nil
	}

	srv.met.observe(sum, srv.cnt.Counts(), err)
	srv.record(sum, err)

	if err != nil && srv.cfg.Alert {
		e := srv.mail.Send(
			fmt.Sprintf("acquisition on %q failed", srv.cfg.Acq.Device),
			alertBody(srv.name, srv.cfg.Acq, sum, err),
		)
		if e != nil {
			srv.msg.Printf("could not send mail alert: %+v", e)
		}
	}

	return sum, err
}

func (srv *server) record(sum acq.Summary, err error) {
	if srv.db == nil {
		return
	}

	run := runlog.NewRun(srv.cfg.Acq.Device, srv.cfg.Acq.Mode, sum, err)
	id, e := srv.db.Insert(context.Background(), run)
	if e != nil {
		srv.msg.Printf("could not record run: %+v", e)
		return
	}
	srv.msg.Printf("recorded run %d (status=%q)", id, run.Status)
}

func (srv *server) quit() error {
	var errs []error
	_ = srv.reset()
	if srv.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, srv.http.Shutdown(ctx))
		srv.http = nil
	}
	if srv.db != nil {
		errs = append(errs, srv.db.Close())
		srv.db = nil
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("could not quit server: %w", err)
		}
	}
	return nil
}

func alertBody(name string, cfg acq.Config, sum acq.Summary, err error) string {
	o := new(bytes.Buffer)
	fmt.Fprintf(o, "node:      %s\n", name)
	fmt.Fprintf(o, "device:    %s\n", cfg.Device)
	fmt.Fprintf(o, "mode:      %v\n", cfg.Mode)
	fmt.Fprintf(o, "start:     %v\n", sum.Start.Format(time.RFC3339))
	fmt.Fprintf(o, "records:   %d\n", sum.Records)
	fmt.Fprintf(o, "photons:   %d\n", sum.Stats.Photons)
	fmt.Fprintf(o, "markers:   %d\n", sum.Stats.Markers)
	fmt.Fprintf(o, "overflows: %d\n", sum.Stats.Overflows)
	fmt.Fprintf(o, "error:     %v\n", err)
	return o.String()
}
