// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/xerrors"
)

// Text writes decoded events as fixed-width text lines.
//
// T2 lines hold the channel (or marker bitmask) and the arrival time in ps.
// T3 lines hold the channel (or marker bitmask), the arrival time of the
// sync period in s and, for photons, the delay within that period in ps.
type Text struct {
	w    *bufio.Writer
	mode tttr.Mode
	res  float64 // resolution, in ps
	sync float64 // sync period, in s
}

// NewText creates a new text sink writing to w.
// res is the (binned) resolution of the device in ps and sync the sync
// period in s. sync is only meaningful in T3 mode.
func NewText(w io.Writer, mode tttr.Mode, res, sync float64) (*Text, error) {
	if !mode.Valid() {
		return nil, xerrors.Errorf("sink: could not create text sink: %w", tttr.ErrMalformedMode)
	}
	return &Text{
		w:    bufio.NewWriter(w),
		mode: mode,
		res:  res,
		sync: sync,
	}, nil
}

// WriteHeader writes the column header line.
func (txt *Text) WriteHeader() error {
	var err error
	switch txt.mode {
	case tttr.T2:
		_, err = txt.w.WriteString("ev chn time/ps\n\n")
	default:
		_, err = txt.w.WriteString("ev chn ttag/s dtime/ps\n\n")
	}
	if err != nil {
		return xerrors.Errorf("sink: could not write header: %w", err)
	}
	return nil
}

// Consume implements tttr.Sink.
func (txt *Text) Consume(evt tttr.Event) error {
	var err error
	switch {
	case evt.Mode == tttr.T2 && evt.Kind == tttr.Marker:
		_, err = fmt.Fprintf(txt.w, "MK %2d %14.0f\n", evt.Markers, float64(evt.Time)*txt.res)
	case evt.Mode == tttr.T2:
		_, err = fmt.Fprintf(txt.w, "CH %2d %14.0f\n", evt.Channel, float64(evt.Time)*txt.res)
	case evt.Kind == tttr.Marker:
		_, err = fmt.Fprintf(txt.w, "MK %2d %10.8f\n", evt.Markers, float64(evt.Time)*txt.sync)
	default:
		_, err = fmt.Fprintf(txt.w, "CH %2d %10.8f %8.0f\n",
			evt.Channel,
			float64(evt.Time)*txt.sync,
			float64(evt.DTime)*txt.res,
		)
	}
	if err != nil {
		return xerrors.Errorf("sink: could not write event: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the underlying io.Writer.
func (txt *Text) Flush() error {
	return txt.w.Flush()
}
