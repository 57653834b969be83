// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"net/http"
	"strconv"

	"github.com/go-lpc/picoq/acq"
	"github.com/go-lpc/picoq/sink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg *prometheus.Registry

	records   prometheus.Counter
	photons   *prometheus.CounterVec // by logical channel
	syncs     prometheus.Counter
	markers   prometheus.Counter
	overflows prometheus.Counter
	dropped   prometheus.Counter // dropped /events frames
	runs      *prometheus.CounterVec
	running   prometheus.Gauge
	last      prometheus.Gauge // duration of the last run
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &metrics{
		reg: reg,
		records: f.NewCounter(prometheus.CounterOpts{
			Name: "picoq_records_total",
			Help: "Number of TTTR records read from the device.",
		}),
		photons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picoq_photons_total",
			Help: "Number of photons per input channel.",
		}, []string{"channel"}),
		syncs: f.NewCounter(prometheus.CounterOpts{
			Name: "picoq_syncs_total",
			Help: "Number of T2 sync events.",
		}),
		markers: f.NewCounter(prometheus.CounterOpts{
			Name: "picoq_markers_total",
			Help: "Number of marker events.",
		}),
		overflows: f.NewCounter(prometheus.CounterOpts{
			Name: "picoq_overflows_total",
			Help: "Number of overflow records.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "picoq_dropped_frames_total",
			Help: "Number of event frames dropped because no consumer kept up.",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picoq_runs_total",
			Help: "Number of acquisition sessions, by status.",
		}, []string{"status"}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Name: "picoq_running",
			Help: "Whether an acquisition session is running.",
		}),
		last: f.NewGauge(prometheus.GaugeOpts{
			Name: "picoq_last_run_seconds",
			Help: "Duration of the last acquisition session.",
		}),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *metrics) observe(sum acq.Summary, cnts sink.Counts, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case sum.Aborted:
		status = "aborted"
	}
	m.runs.WithLabelValues(status).Inc()

	m.records.Add(float64(sum.Records))
	m.markers.Add(float64(sum.Stats.Markers))
	m.overflows.Add(float64(sum.Stats.Overflows))

	m.syncs.Add(float64(cnts.Syncs))
	for i, n := range cnts.Photons {
		if n == 0 {
			continue
		}
		m.photons.WithLabelValues(strconv.Itoa(i + 1)).Add(float64(n))
	}

	if !sum.Stop.IsZero() {
		m.last.Set(sum.Stop.Sub(sum.Start).Seconds())
	}
}
