package alerting

// Outcome is where one event ended up in the pipeline as seen from the
// emitting goroutine. Delivery success or failure happens later on the worker.
type Outcome uint8

const (
	OutcomeFiltered Outcome = iota
	OutcomeNotAlert
	OutcomeSuppressed
	OutcomeDroppedBackpressure
	OutcomeEnqueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFiltered:
		return "filtered"
	case OutcomeNotAlert:
		return "not_alert"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeDroppedBackpressure:
		return "dropped_backpressure"
	case OutcomeEnqueued:
		return "enqueued"
	default:
		return "unknown"
	}
}
