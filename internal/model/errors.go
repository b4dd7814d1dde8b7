package model

import "fmt"

// ValidationError is a local precondition failure. It blocks the action before
// any collaborator is called.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ServiceError wraps a collaborator failure with the step that failed.
// Detail carries the best available message from the underlying service.
type ServiceError struct {
	Step   string // "save", "schedule", "publish", "research", "generate", "cancel"
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Step, e.Detail)
	}
	return fmt.Sprintf("%s failed: something went wrong, please retry", e.Step)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WrapService builds a ServiceError for step, taking the detail message from
// err when present.
func WrapService(step string, err error) *ServiceError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &ServiceError{Step: step, Detail: detail, Err: err}
}
