// Package metrics содержит коллекторы Prometheus сервиса.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "song_bracket"

type Metrics struct {
	votes            *prometheus.CounterVec
	matchTransitions *prometheus.CounterVec
	generations      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg. Для тестов передавайте prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote ledger operations by kind and result.",
		}, []string{"operation", "result"}),
		matchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_transitions_total",
			Help:      "Match status transitions.",
		}, []string{"from", "to"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bracket_generations_total",
			Help:      "Bracket generations by size.",
		}, []string{"size"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.votes, m.matchTransitions, m.generations, m.httpRequests, m.httpDuration)
	return m
}

func (m *Metrics) VoteOperation(operation, result string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) MatchTransition(from, to string) {
	if m == nil {
		return
	}
	m.matchTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) BracketGenerated(size int) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(strconv.Itoa(size)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
