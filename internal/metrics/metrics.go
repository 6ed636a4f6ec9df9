// Package metrics declares the prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "lifecycle"

const (
	LabelJob      = "job"
	LabelStatus   = "status"
	LabelResult   = "result"
	LabelStep     = "step"
	LabelCategory = "category"
	LabelOp       = "op"
)

// Job run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusPartial   = "partial"
	StatusSkipped   = "skipped"
)

var JobRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "job_runs_total",
		Help:      "Scheduled job executions by outcome",
		Namespace: Namespace,
	},
	[]string{LabelJob, LabelStatus},
)

var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      "job_duration_seconds",
		Help:      "Scheduled job execution time",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
	},
	[]string{LabelJob},
)

var CascadeAccounts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "cascade_accounts_total",
		Help:      "Accounts handled by the cascade delete job",
		Namespace: Namespace,
	},
	[]string{LabelResult},
)

var PurgeSteps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "purge_steps_total",
		Help:      "Outbox purge steps by step kind and result",
		Namespace: Namespace,
	},
	[]string{LabelStep, LabelResult},
)

var AlarmsPublished = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "alarms_published_total",
		Help:      "Alarm messages handed to the message queue",
		Namespace: Namespace,
	},
)

var AttachmentRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "attachment_rejections_total",
		Help:      "Attachment operations rejected by the per-category cap",
		Namespace: Namespace,
	},
	[]string{LabelCategory},
)

var RemoteCallFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "remote_call_failures_total",
		Help:      "Remote calls that failed after all retry attempts",
		Namespace: Namespace,
	},
	[]string{LabelOp},
)
