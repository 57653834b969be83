// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sink provides consumers of decoded TTTR events.
package sink // import "github.com/go-lpc/picoq/sink"

import (
	"github.com/go-lpc/picoq/tttr"
)

// Discard is a sink that drops all events.
var Discard tttr.Sink = discard{}

type discard struct{}

func (discard) Consume(tttr.Event) error { return nil }

// Multi returns a sink that forwards each event to all the provided sinks,
// in order. The first error stops the forwarding of that event.
func Multi(sinks ...tttr.Sink) tttr.Sink {
	o := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		o = append(o, s)
	}
	return o
}

type multi []tttr.Sink

func (m multi) Consume(evt tttr.Event) error {
	for _, s := range m {
		err := s.Consume(evt)
		if err != nil {
			return err
		}
	}
	return nil
}

var (
	_ tttr.Sink = discard{}
	_ tttr.Sink = (multi)(nil)
	_ tttr.Sink = (*Text)(nil)
	_ tttr.Sink = (*Histogram)(nil)
	_ tttr.Sink = (*Counter)(nil)
)
