package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow metrics. Dead ends are the operator signal for misconfigured
// graphs: the completing user sees success but no successor task appears.
var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Completed workflow transitions by step type.",
	}, []string{"step"})

	deadEndsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_dead_ends_total",
		Help: "Transitions that ended with no next step or assignee.",
	}, []string{"step"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_precondition_rejections_total",
		Help: "Step completion attempts rejected by a precondition check.",
	}, []string{"step"})
)
