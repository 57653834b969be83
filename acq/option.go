// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"io"
	"log"
)

const (
	// DefaultBufferSize is the default number of records read from
	// the FIFO at each poll.
	DefaultBufferSize = 1 << 20

	// DefaultStopRetries is the default number of extra polls done
	// once the acquisition time elapsed.
	DefaultStopRetries = 5
)

type config struct {
	msg     *log.Logger
	bufsz   int
	records int64
	retries int
	raw     io.Writer
}

func newConfig() config {
	return config{
		bufsz:   DefaultBufferSize,
		retries: DefaultStopRetries,
	}
}

// Option configures an acquisition.
type Option func(*config)

// WithBufferSize sets the maximum number of records read per FIFO poll.
func WithBufferSize(n int) Option {
	return func(cfg *config) {
		cfg.bufsz = n
	}
}

// WithRecords declares the total number of records the session should read.
// Zero means unbounded.
func WithRecords(n int64) Option {
	return func(cfg *config) {
		cfg.records = n
	}
}

// WithStopRetries sets the number of extra empty polls performed once
// the acquisition time elapsed.
func WithStopRetries(n int) Option {
	return func(cfg *config) {
		cfg.retries = n
	}
}

// WithLogger sets the logger used by the acquisition.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithRawOutput copies every record read from the FIFO to w, in the raw
// record format replayed by OpenFile, before it is decoded.
func WithRawOutput(w io.Writer) Option {
	return func(cfg *config) {
		cfg.raw = w
	}
}
