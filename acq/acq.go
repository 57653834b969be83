// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acq drives TTTR acquisitions: it polls a device FIFO for raw
// records and hands them to a tttr.Decoder.
package acq // import "github.com/go-lpc/picoq/acq"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/picoq/internal/rformat"
	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/xerrors"
)

var (
	// ErrFIFOFull is returned when the device FIFO overran during
	// an acquisition.
	ErrFIFOFull = errors.New("acq: FIFO overrun")
)

// Flags is the device status bitmask.
type Flags uint32

const (
	FlagOverflow Flags = 0x1 // count rate overflow
	FlagFIFOFull Flags = 0x2 // FIFO overrun, data lost
)

func (f Flags) String() string {
	var s []byte
	for _, v := range []struct {
		f Flags
		n string
	}{
		{FlagOverflow, "overflow"},
		{FlagFIFOFull, "fifo-full"},
	} {
		if f&v.f == 0 {
			continue
		}
		if len(s) > 0 {
			s = append(s, '|')
		}
		s = append(s, v.n...)
	}
	if len(s) == 0 {
		return fmt.Sprintf("Flags(0x%x)", uint32(f))
	}
	return string(s)
}

// Source is a device producing raw TTTR records.
type Source interface {
	// Flags returns the current device status.
	Flags() (Flags, error)

	// ReadFIFO reads up to len(buf) records into buf.
	// ReadFIFO may return fewer records than requested, including
	// zero when no data is available yet.
	// ReadFIFO returns io.EOF when the source is exhausted.
	ReadFIFO(buf []uint32) (int, error)

	// CTCStatus reports whether the acquisition time has elapsed.
	CTCStatus() (bool, error)
}

// Summary describes a completed acquisition session.
type Summary struct {
	Records int64      // number of records read from the source
	Stats   tttr.Stats // decoder statistics
	Polls   int64      // number of FIFO polls
	Aborted bool       // whether the session was interrupted
	Start   time.Time
	Stop    time.Time
}

// Acquisition polls a Source and decodes its records.
type Acquisition struct {
	msg *log.Logger
	src Source
	dec *tttr.Decoder
	cfg config
	raw *rformat.Encoder // nil: no raw output

	buf []uint32
}

// New creates a new acquisition reading from src and decoding with dec.
func New(src Source, dec *tttr.Decoder, opts ...Option) (*Acquisition, error) {
	if src == nil {
		return nil, xerrors.Errorf("acq: invalid nil source")
	}
	if dec == nil {
		return nil, xerrors.Errorf("acq: invalid nil decoder")
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.bufsz <= 0:
		return nil, xerrors.Errorf("acq: invalid buffer size %d", cfg.bufsz)
	case cfg.records < 0:
		return nil, xerrors.Errorf("acq: invalid number of records %d", cfg.records)
	case cfg.retries < 0:
		return nil, xerrors.Errorf("acq: invalid number of stop retries %d", cfg.retries)
	}

	msg := cfg.msg
	if msg == nil {
		msg = log.New(os.Stdout, "acq: ", 0)
	}

	acq := &Acquisition{
		msg: msg,
		src: src,
		dec: dec,
		cfg: cfg,
		buf: make([]uint32, cfg.bufsz),
	}
	if cfg.raw != nil {
		acq.raw = rformat.NewEncoder(cfg.raw)
	}
	return acq, nil
}

// Decoder returns the decoder attached to this acquisition.
func (acq *Acquisition) Decoder() *tttr.Decoder { return acq.dec }

// Run runs an acquisition session until the source is exhausted, the
// acquisition time elapsed, the declared number of records was read or
// the context is canceled.
//
// Run resets the decoder before reading the first record.
// A canceled context is not an error: the returned summary is then
// marked as aborted.
func (acq *Acquisition) Run(ctx context.Context) (sum Summary, err error) {
	acq.dec.Reset()

	sum.Start = time.Now().UTC()
	defer func() {
		sum.Stop = time.Now().UTC()
		sum.Stats = acq.dec.Stats()
	}()

	retries := 0
	for {
		select {
		case <-ctx.Done():
			acq.msg.Printf("acquisition aborted after %d records: %v", sum.Records, ctx.Err())
			sum.Aborted = true
			return sum, nil
		default:
		}

		if acq.cfg.records > 0 && sum.Records >= acq.cfg.records {
			return sum, nil
		}

		sum.Polls++
		flags, err := acq.src.Flags()
		if err != nil {
			return sum, xerrors.Errorf("acq: could not read device flags: %w", err)
		}
		if flags&FlagFIFOFull != 0 {
			return sum, xerrors.Errorf("acq: poll %d after %d records: %w", sum.Polls, sum.Records, ErrFIFOFull)
		}

		buf := acq.buf
		if acq.cfg.records > 0 {
			if left := acq.cfg.records - sum.Records; left < int64(len(buf)) {
				buf = buf[:left]
			}
		}

		n, err := acq.src.ReadFIFO(buf)
		if n > 0 {
			sum.Records += int64(n)
			if acq.raw != nil {
				if err := acq.raw.Encode(buf[:n]); err != nil {
					return sum, xerrors.Errorf("acq: could not write raw records: %w", err)
				}
			}
			if err := acq.dec.Decode(buf, n); err != nil {
				return sum, xerrors.Errorf("acq: could not decode FIFO data: %w", err)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if acq.cfg.records > 0 && sum.Records < acq.cfg.records {
				return sum, xerrors.Errorf(
					"acq: source ended after %d/%d records: %w",
					sum.Records, acq.cfg.records, tttr.ErrShortInput,
				)
			}
			return sum, nil
		default:
			return sum, xerrors.Errorf("acq: could not read FIFO: %w", err)
		}

		if n > 0 {
			continue
		}

		done, err := acq.src.CTCStatus()
		if err != nil {
			return sum, xerrors.Errorf("acq: could not read CTC status: %w", err)
		}
		if !done {
			continue
		}
		// some records may still be in flight in the FIFO.
		retries++
		if retries > acq.cfg.retries {
			return sum, nil
		}
	}
}
