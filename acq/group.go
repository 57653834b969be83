// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"context"

	"github.com/go-lpc/picoq/tttr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Group runs a set of acquisitions concurrently, one per device.
// Each acquisition owns its own decoder.
type Group struct {
	acqs []*Acquisition
}

// NewGroup creates a group from the provided acquisitions.
func NewGroup(acqs ...*Acquisition) (*Group, error) {
	seen := make(map[*tttr.Decoder]int, len(acqs))
	for i, acq := range acqs {
		if acq == nil {
			return nil, xerrors.Errorf("acq: invalid nil acquisition %d", i)
		}
		if j, dup := seen[acq.dec]; dup {
			return nil, xerrors.Errorf("acq: acquisitions %d and %d share the same decoder", j, i)
		}
		seen[acq.dec] = i
	}
	return &Group{acqs: acqs}, nil
}

// Len returns the number of acquisitions in the group.
func (grp *Group) Len() int { return len(grp.acqs) }

// Run runs all the acquisitions of the group concurrently.
// The first failing acquisition cancels the others.
// Run returns the summaries of all acquisitions, in group order, and the
// first error encountered.
func (grp *Group) Run(ctx context.Context) ([]Summary, error) {
	var (
		sums   = make([]Summary, len(grp.acqs))
		g, sub = errgroup.WithContext(ctx)
	)

	for i := range grp.acqs {
		i := i
		g.Go(func() error {
			sum, err := grp.acqs[i].Run(sub)
			sums[i] = sum
			if err != nil {
				return xerrors.Errorf("acq: acquisition %d failed: %w", i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return sums, err
}
