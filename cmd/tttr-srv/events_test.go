// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/picoq/tttr"
)

// eventSize is the encoded size of one event in an /events frame.
const eventSize = 16

// decodeEvents decodes an /events frame body, as a consumer would.
func decodeEvents(p []byte) ([]tttr.Event, error) {
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("could not decode number of events: %w", err)
	}
	if limit := (len(p) - 4) / eventSize; n > limit {
		return nil, fmt.Errorf("invalid number of events %d (max=%d)", n, limit)
	}

	evts := make([]tttr.Event, 0, n)
	for i := 0; i < n; i++ {
		var (
			hdr   = dec.ReadU32()
			dtime = dec.ReadU32()
			ts    = dec.ReadU64()
		)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("could not decode event %d/%d: %w", i, n, err)
		}
		evts = append(evts, tttr.Event{
			Kind:    tttr.Kind(hdr & 0xff),
			Mode:    tttr.Mode((hdr >> 8) & 0xff),
			Channel: uint8(hdr >> 16),
			Markers: uint8(hdr >> 24),
			DTime:   uint16(dtime),
			Time:    ts,
		})
	}
	return evts, nil
}

func TestEncodeEvents(t *testing.T) {
	evts := []tttr.Event{
		{Kind: tttr.Photon, Mode: tttr.T3, Time: 42, Channel: 3, DTime: 32767},
		{Kind: tttr.Marker, Mode: tttr.T2, Time: 1<<64 - 1, Markers: 15},
		{Kind: tttr.Photon, Mode: tttr.T2, Time: 7},
	}

	raw, err := encodeEvents(evts)
	if err != nil {
		t.Fatalf("could not encode events: %+v", err)
	}
	if got, want := len(raw), 4+eventSize*len(evts); got != want {
		t.Fatalf("invalid frame size: got=%d, want=%d", got, want)
	}

	got, err := decodeEvents(raw)
	if err != nil {
		t.Fatalf("could not decode events: %+v", err)
	}
	if !reflect.DeepEqual(got, evts) {
		t.Fatalf("invalid events:\ngot= %v\nwant=%v", got, evts)
	}
}

func TestDecodeEventsInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "short-count", raw: []byte{1, 0}},
		{name: "huge-count", raw: []byte{0xff, 0xff, 0xff, 0xff}},
		{name: "missing-event", raw: append([]byte{2, 0, 0, 0}, make([]byte, eventSize)...)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeEvents(tc.raw)
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
