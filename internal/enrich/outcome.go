// Package enrich turns a discovered candidate into a lead: it scrapes the
// site, qualifies the business, hunts for a decision-maker and drafts an
// email. Every step reports how it ended through an Outcome.
package enrich

// FailureKind classifies how an enrichment step ended.
type FailureKind int

const (
	// FailureNone means the step produced its value normally.
	FailureNone FailureKind = iota
	// FailureTransient means an external call failed and the value is the
	// step's safe default. The candidate continues unless the default
	// itself disqualifies it.
	FailureTransient
	// FailureHalt means the candidate must be abandoned.
	FailureHalt
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransient:
		return "transient"
	case FailureHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Outcome is the result of one enrichment step. Value is always usable,
// even when Failure is set.
type Outcome[T any] struct {
	Value   T
	Failure FailureKind
	Err     error
}

// Halted reports whether the candidate must be abandoned.
func (o Outcome[T]) Halted() bool { return o.Failure == FailureHalt }

// Recovered reports whether Value is a default substituted after a failure.
func (o Outcome[T]) Recovered() bool { return o.Failure == FailureTransient }

func succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func recovered[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Failure: FailureTransient, Err: err}
}

func halted[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Failure: FailureHalt, Err: err}
}
