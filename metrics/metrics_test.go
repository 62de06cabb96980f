package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.VoteOperation("submit", "ok")
	m.VoteOperation("submit", "ok")
	m.VoteOperation("submit", "already_voted")
	m.MatchTransition("locked", "open")
	m.BracketGenerated(8)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.votes.WithLabelValues("submit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.votes.WithLabelValues("submit", "already_voted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchTransitions.WithLabelValues("locked", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("8")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.VoteOperation("submit", "ok")
		m.MatchTransition("open", "closed")
		m.BracketGenerated(4)
		m.ObserveHTTP("GET", "/healthz", 200, 0.01)
	})
}
