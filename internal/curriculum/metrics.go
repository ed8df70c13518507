package curriculum

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce     sync.Once
	operationsTotal *prometheus.CounterVec
	noticesTotal    *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursehub",
			Subsystem: "curriculum",
			Name:      "operations_total",
			Help:      "Curriculum operations applied, by kind and outcome",
		}, []string{"op", "outcome"})

		noticesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursehub",
			Subsystem: "curriculum",
			Name:      "notices_total",
			Help:      "Notices raised by curriculum operations",
		}, []string{"level", "code"})
	})
}

func observeOperation(kind OperationKind, notices []Notice, err error) {
	initMetrics()

	outcome := "applied"
	switch {
	case err != nil:
		outcome = "error"
	case Rejected(notices):
		outcome = "rejected"
	}
	label := string(kind)
	if !kind.Known() {
		label = "unknown"
	}
	operationsTotal.WithLabelValues(label, outcome).Inc()

	for _, notice := range notices {
		noticesTotal.WithLabelValues(string(notice.Level), notice.Code).Inc()
	}
}
