// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/picoq/tttr"
)

// batcher groups decoded events into /events frames.
// Frames are dropped when the output queue is full.
type batcher struct {
	n    int
	evts []tttr.Event
	out  chan<- []byte
	drop func()
}

func newBatcher(n int, out chan<- []byte, drop func()) *batcher {
	return &batcher{
		n:    n,
		evts: make([]tttr.Event, 0, n),
		out:  out,
		drop: drop,
	}
}

// Consume implements tttr.Sink.
func (b *batcher) Consume(evt tttr.Event) error {
	b.evts = append(b.evts, evt)
	if len(b.evts) < b.n {
		return nil
	}
	return b.flush()
}

func (b *batcher) flush() error {
	if len(b.evts) == 0 {
		return nil
	}
	raw, err := encodeEvents(b.evts)
	if err != nil {
		return err
	}
	b.evts = b.evts[:0]

	select {
	case b.out <- raw:
	default:
		b.drop()
	}
	return nil
}

// encodeEvents encodes a batch of events into a frame body:
// the number of events followed, for each event, by
// kind|mode<<8|channel<<16|markers<<24, dtime and time.
func encodeEvents(evts []tttr.Event) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(uint32(len(evts)))
	for _, evt := range evts {
		enc.WriteU32(
			uint32(evt.Kind) |
				uint32(evt.Mode)<<8 |
				uint32(evt.Channel)<<16 |
				uint32(evt.Markers)<<24,
		)
		enc.WriteU32(uint32(evt.DTime))
		enc.WriteU64(evt.Time)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("could not encode events: %w", err)
	}
	return buf.Bytes(), nil
}
