// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-lpc/picoq/tttr"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/xerrors"
)

// Histogram accumulates T3 photon events in a channel×delay histogram.
//
// Column i holds the photons of logical channel i+1; row j the photons
// with a delay of j (binned resolution units).
// Events outside the histogram range end up in the outflow bins.
type Histogram struct {
	nchans int
	nbins  int
	h      *hbook.H2D
}

// NewHistogram creates a histogram for nchans input channels and nbins
// delay bins. nbins <= 0 selects the full 15-bit delay range.
func NewHistogram(nchans, nbins int) (*Histogram, error) {
	if nchans <= 0 {
		return nil, xerrors.Errorf("sink: invalid number of channels (n=%d)", nchans)
	}
	if nbins <= 0 {
		nbins = tttr.NumDTimeBins
	}
	if nbins > tttr.NumDTimeBins {
		return nil, xerrors.Errorf("sink: invalid number of delay bins (n=%d, max=%d)", nbins, tttr.NumDTimeBins)
	}
	h := hbook.NewH2D(nchans, 0, float64(nchans), nbins, 0, float64(nbins))
	h.Annotation()["name"] = "tttr-histo"
	return &Histogram{
		nchans: nchans,
		nbins:  nbins,
		h:      h,
	}, nil
}

// Consume implements tttr.Sink.
// Only T3 photons are histogrammed.
func (hist *Histogram) Consume(evt tttr.Event) error {
	if evt.Mode != tttr.T3 || evt.Kind != tttr.Photon {
		return nil
	}
	// bin centers, to stay clear of the bin edges.
	hist.h.Fill(float64(evt.Channel)-0.5, float64(evt.DTime)+0.5, 1)
	return nil
}

// Channels returns the number of channels of the histogram.
func (hist *Histogram) Channels() int { return hist.nchans }

// Bins returns the number of delay bins of the histogram.
func (hist *Histogram) Bins() int { return hist.nbins }

// Entries returns the number of photons consumed, including the ones
// outside the histogram range.
func (hist *Histogram) Entries() int64 { return hist.h.Entries() }

// Count returns the number of photons of logical channel ch (1-based)
// with delay bin.
func (hist *Histogram) Count(ch, bin int) int64 {
	if ch < 1 || ch > hist.nchans || bin < 0 || bin >= hist.nbins {
		return 0
	}
	return hist.h.Binning.Bins[bin*hist.nchans+ch-1].Entries()
}

// H2D returns the underlying histogram.
func (hist *Histogram) H2D() *hbook.H2D { return hist.h }

// WriteTo writes the histogram as a text matrix, one line per delay bin
// and one column per channel.
func (hist *Histogram) WriteTo(w io.Writer) (int64, error) {
	var (
		bw = bufio.NewWriter(w)
		n  int64
	)
	for bin := 0; bin < hist.nbins; bin++ {
		for ch := 1; ch <= hist.nchans; ch++ {
			nn, err := fmt.Fprintf(bw, "%6d ", hist.Count(ch, bin))
			n += int64(nn)
			if err != nil {
				return n, xerrors.Errorf("sink: could not write histogram bin: %w", err)
			}
		}
		err := bw.WriteByte('\n')
		if err != nil {
			return n, xerrors.Errorf("sink: could not write histogram row: %w", err)
		}
		n++
	}
	err := bw.Flush()
	if err != nil {
		return n, xerrors.Errorf("sink: could not flush histogram: %w", err)
	}
	return n, nil
}

// MarshalYODA marshals the histogram into the YODA format.
func (hist *Histogram) MarshalYODA() ([]byte, error) {
	return hist.h.MarshalYODA()
}
