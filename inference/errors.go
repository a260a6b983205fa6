package inference

import "fmt"

// StartupError reports an artifact that could not be loaded. It is fatal:
// no Service exists when Load returns one.
type StartupError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// PredictionError reports a failure while scoring one vector. It never
// affects later calls.
type PredictionError struct {
	Stage string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed during %s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

const (
	stageValidate = "validate"
	stageScale    = "scale"
	stageClassify = "classify"
)
