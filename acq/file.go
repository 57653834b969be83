// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"errors"
	"io"

	"github.com/go-lpc/picoq/internal/mmap"
	"github.com/go-lpc/picoq/internal/rformat"
	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/xerrors"
)

// FileSource replays a raw record file as if it were read from a device.
//
// The acquisition time is considered elapsed once the whole file was read.
type FileSource struct {
	name string
	h    *mmap.Handle
	dec  *rformat.Decoder
	eof  bool
}

// OpenFile opens the named raw record file for replay.
func OpenFile(fname string) (*FileSource, error) {
	h, err := mmap.Open(fname)
	if err != nil {
		return nil, xerrors.Errorf("acq: could not open replay file: %w", err)
	}

	return &FileSource{
		name: fname,
		h:    h,
		dec:  rformat.NewDecoder(io.NewSectionReader(h, 0, int64(h.Len()))),
	}, nil
}

// Close releases the resources held by the replay file.
func (src *FileSource) Close() error {
	return src.h.Close()
}

// Name returns the name of the replayed file.
func (src *FileSource) Name() string { return src.name }

// Len returns the number of complete records held by the replay file.
func (src *FileSource) Len() int64 {
	return int64(src.h.Len() / rformat.RecordSize)
}

// Flags implements Source.
// A replay file never overruns.
func (src *FileSource) Flags() (Flags, error) { return 0, nil }

// ReadFIFO implements Source.
func (src *FileSource) ReadFIFO(buf []uint32) (int, error) {
	n, err := src.dec.Decode(buf)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		src.eof = true
		return n, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		src.eof = true
		return n, xerrors.Errorf(
			"acq: replay file %q ends inside record %d: %w",
			src.name, src.dec.Records(), tttr.ErrShortInput,
		)
	default:
		return n, xerrors.Errorf("acq: could not read replay file %q: %w", src.name, err)
	}
}

// CTCStatus implements Source.
func (src *FileSource) CTCStatus() (bool, error) { return src.eof, nil }

var (
	_ Source    = (*FileSource)(nil)
	_ io.Closer = (*FileSource)(nil)
)
