package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Execution counters, exposed on the API server's /metrics endpoint.
var (
	tasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slackagent_tasks_submitted_total",
		Help: "Number of tasks submitted to the executor.",
	})

	tasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slackagent_tasks_completed_total",
		Help: "Number of tasks that completed successfully.",
	})

	tasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slackagent_tasks_failed_total",
		Help: "Number of tasks that failed after exhausting retries.",
	})

	tasksCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slackagent_tasks_cancelled_total",
		Help: "Number of tasks cancelled by executor shutdown.",
	})

	taskRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slackagent_task_retries_total",
		Help: "Number of retry attempts scheduled across all tasks.",
	})
)
