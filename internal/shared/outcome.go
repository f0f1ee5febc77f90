package shared

// Outcome carries the result of a call to an upstream service. A call that
// failed still produces a usable Value; Fallback reports that the value is
// the local substitute and Reason holds the original failure.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   error
}

// Live wraps a value obtained from the upstream service.
func Live[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Substitute wraps a locally computed value used because the upstream call failed.
func Substitute[T any](v T, reason error) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Reason: reason}
}

// Source returns "fallback" or "live", suitable as a metric label.
func (o Outcome[T]) Source() string {
	if o.Fallback {
		return "fallback"
	}
	return "live"
}
