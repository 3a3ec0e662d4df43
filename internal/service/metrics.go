package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标，挂载在私有 HTTP 端口的 /metrics 上
var (
	locksAcquiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "lock",
		Name:      "acquired_total",
		Help:      "Number of field locks successfully acquired.",
	}, []string{"field"})

	locksDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "lock",
		Name:      "denied_total",
		Help:      "Number of field lock acquisitions denied due to contention.",
	}, []string{"field"})

	versionsCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "version",
		Name:      "committed_total",
		Help:      "Number of versions committed.",
	})

	commitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "version",
		Name:      "commit_rejected_total",
		Help:      "Number of commits rejected, by reason.",
	}, []string{"reason"})

	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "event",
		Name:      "published_total",
		Help:      "Number of workspace events published.",
	}, []string{"type"})

	substrateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pws",
		Subsystem: "registry",
		Name:      "substrate_errors_total",
		Help:      "Number of ephemeral substrate failures.",
	})
)
