package outbound

// MutationMetrics receives counters from the product and audit use cases.
type MutationMetrics interface {
	ChangeRecorded(action string)
	MutationCompleted(operation string, status string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ChangeRecorded(string)            {}
func (NoopMetrics) MutationCompleted(string, string) {}
