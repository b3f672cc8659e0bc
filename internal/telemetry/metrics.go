package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики движка. Регистрируются в DefaultRegisterer при инициализации пакета
// и экспортируются через MetricsHandler.
var (
	// RunsTotal — количество runs по исходу (succeeded, failed, blocked, halted).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_runs_total",
		Help: "Total number of flow runs by outcome.",
	}, []string{"outcome"})

	// RunsActive — количество выполняющихся runs.
	RunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodeflow_runs_active",
		Help: "Number of flow runs currently executing.",
	})

	// NodeResolutionsTotal — количество резолюций узлов по исходу
	// (resolved, cached, failed).
	NodeResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_node_resolutions_total",
		Help: "Total number of node resolutions by outcome.",
	}, []string{"outcome"})

	// NodeResolutionSeconds — длительность резолюции узла.
	NodeResolutionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodeflow_node_resolution_seconds",
		Help:    "Node resolution duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// TaskPollsTotal — количество опросов статуса фоновых задач.
	TaskPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_task_polls_total",
		Help: "Total number of background task status polls.",
	})

	// ScheduledTriggersTotal — количество срабатываний cron-триггеров
	// по исходу (fired, failed).
	ScheduledTriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_scheduled_triggers_total",
		Help: "Total number of cron trigger firings by outcome.",
	}, []string{"outcome"})
)

// MetricsHandler возвращает HTTP handler для /metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
