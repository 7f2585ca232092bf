package pipeline

import "fmt"

// ErrorKind classifies a stage failure
type ErrorKind string

const (
	// KindPrecondition is a stage invoked without its required input
	KindPrecondition ErrorKind = "precondition"
	// KindCapability is a failed inference or search call
	KindCapability ErrorKind = "capability"
	// KindUnexpected is anything else raised inside a stage, including panics
	KindUnexpected ErrorKind = "unexpected"
)

// StageError is the failure recorded when a stage cannot complete
type StageError struct {
	Stage   string
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error returns the message stored in State.Error. Precondition messages stand
// alone; capability and unexpected failures carry the stage's prefix.
func (e *StageError) Error() string {
	return e.Message
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func preconditionError(stage Stage, message string) *StageError {
	return &StageError{Stage: stage.Name, Kind: KindPrecondition, Message: message}
}

func capabilityError(stage Stage, cause error) *StageError {
	return &StageError{
		Stage:   stage.Name,
		Kind:    KindCapability,
		Message: fmt.Sprintf("%s: %v", stage.FailurePrefix, cause),
		Cause:   cause,
	}
}

func unexpectedError(stage Stage, recovered any) *StageError {
	cause := fmt.Errorf("panic: %v", recovered)
	return &StageError{
		Stage:   stage.Name,
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("%s: %v", stage.FailurePrefix, cause),
		Cause:   cause,
	}
}
