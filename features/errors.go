package features

import "fmt"

// ValidationError reports a FeatureSet that cannot be turned into a vector.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}
