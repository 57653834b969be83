// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tttr decodes time-tagged time-resolved (TTTR) event records.
//
// A TTTR acquisition delivers a stream of opaque 32-bit records.
// Each record is either an event (photon, sync or marker) or a special
// overflow record signaling that the narrow time-tag field wrapped around.
// A Decoder keeps track of those wraparounds and emits events carrying
// absolute, monotonically non-decreasing times.
package tttr // import "github.com/go-lpc/picoq/tttr"

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

var (
	// ErrShortInput is returned when the record source ended before
	// the declared number of records was delivered.
	ErrShortInput = errors.New("tttr: short input")

	// ErrOverflow is returned when the overflow correction (or a time
	// derived from it) would exceed the 64-bit unsigned range.
	ErrOverflow = errors.New("tttr: overflow correction out of range")

	// ErrMalformedMode is returned when an unsupported acquisition mode
	// is requested.
	ErrMalformedMode = errors.New("tttr: malformed acquisition mode")
)

// Mode is a TTTR acquisition mode.
type Mode uint8

const (
	T2 Mode = 2 // absolute arrival times
	T3 Mode = 3 // arrival times relative to the sync period
)

// Valid returns whether m is a supported acquisition mode.
func (m Mode) Valid() bool {
	return m == T2 || m == T3
}

func (m Mode) String() string {
	switch m {
	case T2:
		return "T2"
	case T3:
		return "T3"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses an acquisition mode name ("t2", "T3", "2", ...).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t2", "2":
		return T2, nil
	case "t3", "3":
		return T3, nil
	}
	return 0, xerrors.Errorf("tttr: invalid mode %q: %w", s, ErrMalformedMode)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(p []byte) error {
	v, err := ParseMode(string(p))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, xerrors.Errorf("tttr: invalid mode %v: %w", m, ErrMalformedMode)
	}
	return []byte(m.String()), nil
}
