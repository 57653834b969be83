// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tttr

const (
	ovflChannel = 0x3f // channel of special overflow records

	// T2Wrap is the number of base resolution ticks spanned by
	// one wraparound of the 25-bit T2 time tag.
	T2Wrap = 33554432

	// T3Wrap is the number of sync periods spanned by
	// one wraparound of the 10-bit T3 nsync field.
	T3Wrap = 1024

	// MaxMarker is the highest marker bitmask a special record can carry.
	MaxMarker = 15

	// NumDTimeBins is the number of distinct T3 delay values (15 bits).
	NumDTimeBins = 1 << 15
)

// Record is a raw 32-bit TTTR record, as delivered by the hardware FIFO.
//
// Layout, from the most significant bit:
//
//	T2: special(1) channel(6) timetag(25)
//	T3: special(1) channel(6) dtime(15) nsync(10)
type Record uint32

// Special returns the special bit (bit 31).
func (r Record) Special() uint32 { return (uint32(r) >> 31) & 0x1 }

// Channel returns the 6-bit channel field.
func (r Record) Channel() uint32 { return (uint32(r) >> 25) & 0x3f }

// TimeTag returns the 25-bit T2 time tag.
func (r Record) TimeTag() uint32 { return uint32(r) & 0x1ffffff }

// DTime returns the 15-bit T3 intra-period delay.
func (r Record) DTime() uint32 { return (uint32(r) >> 10) & 0x7fff }

// NSync returns the 10-bit T3 sync-period counter.
func (r Record) NSync() uint32 { return uint32(r) & 0x3ff }

// IsOverflow returns whether r is an overflow record, in either mode.
func (r Record) IsOverflow() bool {
	return r.Special() == 1 && r.Channel() == ovflChannel
}

// Remainder returns the mode-dependent field following the channel
// that overflow records use to store their wraparound count.
func (r Record) Remainder(mode Mode) uint32 {
	if mode == T3 {
		return r.NSync()
	}
	return r.TimeTag()
}

// NewT2Record packs the provided fields into a T2 record.
// Fields wider than their slot are truncated.
func NewT2Record(special, channel, timetag uint32) Record {
	return Record((special&0x1)<<31 | (channel&0x3f)<<25 | timetag&0x1ffffff)
}

// NewT3Record packs the provided fields into a T3 record.
// Fields wider than their slot are truncated.
func NewT3Record(special, channel, dtime, nsync uint32) Record {
	return Record((special&0x1)<<31 | (channel&0x3f)<<25 | (dtime&0x7fff)<<10 | nsync&0x3ff)
}

// NewOverflow returns an overflow record for the provided mode,
// carrying n wraparounds. n=0 is the legacy single-overflow encoding.
func NewOverflow(mode Mode, n uint32) Record {
	if mode == T3 {
		return NewT3Record(1, ovflChannel, 0, n)
	}
	return NewT2Record(1, ovflChannel, n)
}
