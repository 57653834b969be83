// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tttr

import (
	"math/bits"

	"golang.org/x/xerrors"
)

// Overflow accumulates the overflow correction of one acquisition session.
// The zero value is a counter at zero.
type Overflow struct {
	v uint64
}

// Reset zeroes the counter. It must be called when a new session starts.
func (ofl *Overflow) Reset() { ofl.v = 0 }

// Current returns the current overflow correction.
func (ofl *Overflow) Current() uint64 { return ofl.v }

// Advance increases the overflow correction by n.
// The counter is left untouched if the addition would wrap around.
func (ofl *Overflow) Advance(n uint64) error {
	v, err := add(ofl.v, n)
	if err != nil {
		return err
	}
	ofl.v = v
	return nil
}

// add returns a+b, or ErrOverflow if the sum does not fit in 64 bits.
func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, xerrors.Errorf("tttr: could not add %d to %d: %w", b, a, ErrOverflow)
	}
	return sum, nil
}

// mul returns a*b, or ErrOverflow if the product does not fit in 64 bits.
func mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, xerrors.Errorf("tttr: could not multiply %d by %d: %w", a, b, ErrOverflow)
	}
	return lo, nil
}
