// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tttr

import (
	"golang.org/x/xerrors"
)

// Stats holds the record and event counters of a decoding session.
type Stats struct {
	Records   uint64 // number of records decoded
	Photons   uint64 // number of photon (and sync) events emitted
	Markers   uint64 // number of marker events emitted
	Overflows uint64 // number of overflow records
	Ignored   uint64 // number of special records without a defined event
}

// Decoder decodes raw TTTR records into events.
//
// A Decoder owns the overflow correction of one acquisition session:
// records must be handed over in the order the device produced them,
// across all the polls of a session.
// Independent Decoder values share no state.
type Decoder struct {
	mode Mode
	sink Sink
	ofl  Overflow

	stats Stats
}

// NewDecoder creates a decoder for the provided acquisition mode,
// emitting decoded events to sink.
// A nil sink discards events.
func NewDecoder(mode Mode, sink Sink) (*Decoder, error) {
	if !mode.Valid() {
		return nil, xerrors.Errorf("tttr: could not create decoder for %v: %w", mode, ErrMalformedMode)
	}
	if sink == nil {
		sink = discard{}
	}
	return &Decoder{mode: mode, sink: sink}, nil
}

// Mode returns the acquisition mode of the decoder.
func (dec *Decoder) Mode() Mode { return dec.mode }

// Overflow returns the current overflow correction, in base resolution
// ticks (T2) or sync periods (T3).
func (dec *Decoder) Overflow() uint64 { return dec.ofl.Current() }

// Stats returns the counters of the current session.
func (dec *Decoder) Stats() Stats { return dec.stats }

// Reset starts a new session.
func (dec *Decoder) Reset() {
	dec.ofl.Reset()
	dec.stats = Stats{}
}

// Decode decodes the first n records of words.
//
// If words holds fewer than n records, all the available records are
// decoded (and their events emitted) before ErrShortInput is returned.
func (dec *Decoder) Decode(words []uint32, n int) error {
	if !dec.mode.Valid() {
		return xerrors.Errorf("tttr: could not decode records: %w", ErrMalformedMode)
	}
	if n < 0 {
		return xerrors.Errorf("tttr: invalid number of records (n=%d)", n)
	}

	got := n
	if len(words) < n {
		got = len(words)
	}

	for i, w := range words[:got] {
		err := dec.DecodeRecord(Record(w))
		if err != nil {
			return xerrors.Errorf("tttr: could not decode record %d/%d: %w", i, n, err)
		}
	}

	if got < n {
		return xerrors.Errorf("tttr: source ended at record %d/%d: %w", got, n, ErrShortInput)
	}
	return nil
}

// DecodeRecord decodes a single record.
func (dec *Decoder) DecodeRecord(rec Record) error {
	dec.stats.Records++
	switch dec.mode {
	case T2:
		return dec.decodeT2(rec)
	case T3:
		return dec.decodeT3(rec)
	default:
		return xerrors.Errorf("tttr: could not decode record: %w", ErrMalformedMode)
	}
}

// overflow advances the overflow correction for an overflow record
// carrying n wraparounds.
// A zero count is the legacy encoding of a single wraparound.
func (dec *Decoder) overflow(wrap uint64, n uint32) error {
	if n == 0 {
		n = 1
	}
	delta, err := mul(wrap, uint64(n))
	if err != nil {
		return err
	}
	err = dec.ofl.Advance(delta)
	if err != nil {
		return err
	}
	dec.stats.Overflows++
	return nil
}

func (dec *Decoder) decodeT2(rec Record) error {
	var (
		ch  = rec.Channel()
		tag = uint64(rec.TimeTag())
		ofl = dec.ofl.Current()
	)

	if rec.Special() == 0 {
		t, err := add(ofl, tag)
		if err != nil {
			return err
		}
		return dec.emit(Event{Kind: Photon, Mode: T2, Time: t, Channel: uint8(ch + 1)})
	}

	switch {
	case ch == ovflChannel:
		return dec.overflow(T2Wrap, rec.TimeTag())

	case 1 <= ch && ch <= MaxMarker:
		// marker time tags only carry the coarse part of the time.
		t, err := mul(T2Wrap, tag)
		if err != nil {
			return err
		}
		t, err = add(ofl, t)
		if err != nil {
			return err
		}
		return dec.emit(Event{Kind: Marker, Mode: T2, Time: t, Markers: uint8(ch)})

	case ch == 0: // sync
		t, err := add(ofl, tag)
		if err != nil {
			return err
		}
		return dec.emit(Event{Kind: Photon, Mode: T2, Time: t, Channel: 0})

	default:
		dec.stats.Ignored++
		return nil
	}
}

func (dec *Decoder) decodeT3(rec Record) error {
	var (
		ch    = rec.Channel()
		nsync = uint64(rec.NSync())
		ofl   = dec.ofl.Current()
	)

	if rec.Special() == 0 {
		t, err := add(ofl, nsync)
		if err != nil {
			return err
		}
		return dec.emit(Event{
			Kind:    Photon,
			Mode:    T3,
			Time:    t,
			Channel: uint8(ch + 1),
			DTime:   uint16(rec.DTime()),
		})
	}

	switch {
	case ch == ovflChannel:
		return dec.overflow(T3Wrap, rec.NSync())

	case 1 <= ch && ch <= MaxMarker:
		t, err := mul(T3Wrap, nsync)
		if err != nil {
			return err
		}
		t, err = add(ofl, t)
		if err != nil {
			return err
		}
		return dec.emit(Event{Kind: Marker, Mode: T3, Time: t, Markers: uint8(ch)})

	default:
		dec.stats.Ignored++
		return nil
	}
}

func (dec *Decoder) emit(evt Event) error {
	switch evt.Kind {
	case Marker:
		dec.stats.Markers++
	default:
		dec.stats.Photons++
	}
	err := dec.sink.Consume(evt)
	if err != nil {
		return xerrors.Errorf("tttr: could not consume %v: %w", evt, err)
	}
	return nil
}
