package estimator

import "fmt"

// ArtifactLoadError means the model cannot serve traffic. Callers at startup
// treat it as fatal.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }
