package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PostsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_published_total",
		Help: "Количество публикаций в канал",
	}, []string{"source"})

	PublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_errors_total",
		Help: "Ошибки отправки поста в канал",
	})

	SchedulerDueJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_due_jobs_total",
		Help: "Количество задач, выбранных планировщиком",
	})

	SchedulerJobErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_job_errors_total",
		Help: "Ошибки публикации отдельных задач планировщика",
	})

	SchedulerQueryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_query_errors_total",
		Help: "Ошибки выборки due-задач планировщика",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PostsPublishedTotal,
		PublishErrorsTotal,
		SchedulerDueJobs,
		SchedulerJobErrors,
		SchedulerQueryErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncPublished увеличивает счётчик публикаций. source — "manual" или "scheduler".
func IncPublished(source string) {
	PostsPublishedTotal.WithLabelValues(source).Inc()
}
