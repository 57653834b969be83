// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"sync"

	"github.com/go-lpc/picoq/tttr"
)

// Counts holds event counters.
type Counts struct {
	Syncs   uint64
	Markers uint64
	Photons []uint64 // photons per logical channel; index 0 is channel 1.
}

// Total returns the total number of photons.
func (c Counts) Total() uint64 {
	var n uint64
	for _, v := range c.Photons {
		n += v
	}
	return n
}

// Counter counts events per channel.
// Counter is safe for concurrent use, so counts can be read while
// an acquisition is running.
type Counter struct {
	mu sync.Mutex
	c  Counts
}

// Consume implements tttr.Sink.
func (cnt *Counter) Consume(evt tttr.Event) error {
	cnt.mu.Lock()
	defer cnt.mu.Unlock()

	switch {
	case evt.Kind == tttr.Marker:
		cnt.c.Markers++
	case evt.IsSync():
		cnt.c.Syncs++
	default:
		i := int(evt.Channel) - 1
		if i >= len(cnt.c.Photons) {
			cnt.c.Photons = append(cnt.c.Photons, make([]uint64, i+1-len(cnt.c.Photons))...)
		}
		cnt.c.Photons[i]++
	}
	return nil
}

// Counts returns a snapshot of the counters.
func (cnt *Counter) Counts() Counts {
	cnt.mu.Lock()
	defer cnt.mu.Unlock()

	o := cnt.c
	o.Photons = append([]uint64(nil), cnt.c.Photons...)
	return o
}

// Reset zeroes all counters.
func (cnt *Counter) Reset() {
	cnt.mu.Lock()
	defer cnt.mu.Unlock()
	cnt.c = Counts{}
}
