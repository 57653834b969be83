// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rformat describes and handles raw TTTR record streams.
//
// A raw stream is the verbatim dump of the device FIFO: a sequence of
// 32-bit records, stored little-endian, without any header.
package rformat // import "github.com/go-lpc/picoq/internal/rformat"

import (
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/xerrors"
)

// RecordSize is the size in bytes of a raw record.
const RecordSize = 4

// Encoder writes raw records to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the provided records to the stream.
func (enc *Encoder) Encode(words []uint32) error {
	if enc.err != nil {
		return enc.err
	}

	sz := RecordSize * len(words)
	if cap(enc.buf) < sz {
		enc.buf = make([]byte, sz)
	}
	buf := enc.buf[:sz]
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[RecordSize*i:], w)
	}

	_, enc.err = enc.w.Write(buf)
	if enc.err != nil {
		enc.err = xerrors.Errorf("rformat: could not write %d records: %w", len(words), enc.err)
	}
	return enc.err
}

// Decoder reads raw records from an input stream.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
	n   int64 // number of records read so far
}

// NewDecoder returns a new Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Records returns the number of records decoded so far.
func (dec *Decoder) Records() int64 { return dec.n }

// Decode reads up to len(words) records into words.
// It returns the number of records read and any error encountered.
// Callers should process the n > 0 records returned before considering
// the error.
// At the end of the stream, Decode returns io.EOF.
// A stream ending in the middle of a record yields io.ErrUnexpectedEOF.
func (dec *Decoder) Decode(words []uint32) (int, error) {
	if dec.err != nil {
		return 0, dec.err
	}
	if len(words) == 0 {
		return 0, nil
	}

	sz := RecordSize * len(words)
	if cap(dec.buf) < sz {
		dec.buf = make([]byte, sz)
	}
	buf := dec.buf[:sz]

	nb, err := io.ReadFull(dec.r, buf)
	n := nb / RecordSize
	for i := range words[:n] {
		words[i] = binary.LittleEndian.Uint32(buf[RecordSize*i:])
	}
	dec.n += int64(n)

	switch {
	case err == nil:
		// ok.
	case errors.Is(err, io.ErrUnexpectedEOF) && nb%RecordSize == 0:
		// stream ended on a record boundary.
		dec.err = io.EOF
		err = nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		dec.err = xerrors.Errorf(
			"rformat: stream ended inside record %d (%d/%d bytes): %w",
			dec.n, nb%RecordSize, RecordSize, io.ErrUnexpectedEOF,
		)
		err = dec.err
	case errors.Is(err, io.EOF):
		dec.err = io.EOF
	default:
		dec.err = xerrors.Errorf("rformat: could not read records: %w", err)
		err = dec.err
	}

	return n, err
}
