// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides prometheus instrumentation for signature
// inspections.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the collectors of one registry. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// SignaturesTotal counts inspected signatures by envelope result
	SignaturesTotal *prometheus.CounterVec

	// SignersTotal counts inspected signer infos
	SignersTotal prometheus.Counter

	// TimestampsTotal counts signer timestamp slots by state
	TimestampsTotal *prometheus.CounterVec

	// DecodeDuration tracks envelope decoding duration in seconds
	DecodeDuration prometheus.Histogram

	// RequestsTotal counts HTTP requests by route and status code
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks HTTP request duration in seconds
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SignaturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigscope_signatures_total",
				Help: "Total number of inspected signatures by envelope result",
			},
			[]string{"result"}, // decoded, malformed, unexpected_content_type, too_large, canceled
		),
		SignersTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sigscope_signers_total",
				Help: "Total number of inspected signer infos",
			},
		),
		TimestampsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigscope_timestamps_total",
				Help: "Total number of signer timestamp slots by state",
			},
			[]string{"state"}, // absent, malformed, decoded
		),
		DecodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sigscope_decode_duration_seconds",
				Help:    "Signature envelope decoding duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100us to 1.6s
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigscope_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status_code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigscope_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
			},
			[]string{"route"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSignature records the result of one envelope decode.
func (m *Metrics) ObserveSignature(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.SignaturesTotal.WithLabelValues(result).Inc()
	m.DecodeDuration.Observe(d.Seconds())
}

// ObserveSigner records one signer and the state of its timestamp slot.
func (m *Metrics) ObserveSigner(timestampState string) {
	if m == nil {
		return
	}
	m.SignersTotal.Inc()
	m.TimestampsTotal.WithLabelValues(timestampState).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// CounterValue retrieves the current value of a counter with the given
// labels. It is intended for tests.
func CounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}
	return 0, nil
}
