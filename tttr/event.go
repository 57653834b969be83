// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tttr

import "fmt"

// Kind describes the type of a decoded event.
type Kind uint8

const (
	Photon Kind = iota // photon or (T2 only) sync arrival
	Marker             // external marker
)

func (k Kind) String() string {
	switch k {
	case Photon:
		return "photon"
	case Marker:
		return "marker"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is a decoded TTTR event.
//
// In T2 mode, Time is the overflow-corrected arrival time in units of
// the device base resolution.
// In T3 mode, Time is the overflow-corrected index of the sync period
// the event arrived in, and DTime the arrival delay within that period,
// in units of the (binned) resolution.
type Event struct {
	Kind Kind
	Mode Mode
	Time uint64

	Channel uint8  // photons: 0 is the T2 sync channel, 1..N regular inputs
	Markers uint8  // markers: bitmask of the markers that fired (1..15)
	DTime   uint16 // T3 photons only
}

// IsSync returns whether evt is a T2 sync event.
func (evt Event) IsSync() bool {
	return evt.Kind == Photon && evt.Mode == T2 && evt.Channel == 0
}

func (evt Event) String() string {
	switch {
	case evt.Kind == Marker:
		return fmt.Sprintf("%v{mode=%v, time=%d, markers=0x%x}", evt.Kind, evt.Mode, evt.Time, evt.Markers)
	case evt.Mode == T3:
		return fmt.Sprintf("%v{mode=%v, nsync=%d, chan=%d, dtime=%d}", evt.Kind, evt.Mode, evt.Time, evt.Channel, evt.DTime)
	default:
		return fmt.Sprintf("%v{mode=%v, time=%d, chan=%d}", evt.Kind, evt.Mode, evt.Time, evt.Channel)
	}
}

// Sink consumes decoded events.
//
// A Decoder calls Consume exactly once per decoded event, synchronously
// and in record order.
type Sink interface {
	Consume(evt Event) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(evt Event) error

// Consume implements Sink.
func (f SinkFunc) Consume(evt Event) error { return f(evt) }

type discard struct{}

func (discard) Consume(Event) error { return nil }
