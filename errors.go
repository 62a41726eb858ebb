package hsm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// State handle is not part of the model
	ErrCodeStateNotFound
	// Region handle is not part of the model
	ErrCodeRegionNotFound
	// Event is invalid for the machine
	ErrCodeInvalidEvent
	// Machine has not been initialized
	ErrCodeMachineNotStarted
	// Machine has already been initialized
	ErrCodeAlreadyStarted
	// A callback panicked
	ErrCodeActionFailed
	// Model configuration is invalid
	ErrCodeInvalidConfiguration
	// Machine is in an undefined state after a callback failure
	ErrCodeInvalidState
	// React was called from inside a callback
	ErrCodeConcurrentModification
)

// StateError represents state-related errors
type StateError struct {
	Code    ErrorCode
	State   string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%s]: %s", e.State, e.Message)
}

// NewStateNotFoundError creates a new state not found error
func NewStateNotFoundError(id StateID) *StateError {
	return &StateError{
		Code:    ErrCodeStateNotFound,
		State:   fmt.Sprintf("#%d", id),
		Message: fmt.Sprintf("state handle %d is not part of the model", id),
	}
}

// NewRegionNotFoundError creates a new region not found error
func NewRegionNotFoundError(id RegionID) *StateError {
	return &StateError{
		Code:    ErrCodeRegionNotFound,
		State:   fmt.Sprintf("region#%d", id),
		Message: fmt.Sprintf("region handle %d is not part of the model", id),
	}
}

// NewStateError creates a new state error with custom values
func NewStateError(code ErrorCode, state string, message string) *StateError {
	return &StateError{
		Code:    code,
		State:   state,
		Message: message,
	}
}

// TransitionError represents an invalid transition in the model
type TransitionError struct {
	From   string
	To     string
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s->%s on %s]: %s", e.From, e.To, e.Event, e.Reason)
}

// NewTransitionError creates a new transition error
func NewTransitionError(from, to, event, reason string) *TransitionError {
	return &TransitionError{
		From:   from,
		To:     to,
		Event:  event,
		Reason: reason,
	}
}

// ConfigurationError reports every problem found while building a model
type ConfigurationError struct {
	Component string
	Issues    []error
}

func (e *ConfigurationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("configuration error in %s: %v", e.Component, e.Issues[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration error in %s: %d issues:", e.Component, len(e.Issues)))
	for i, issue := range e.Issues {
		sb.WriteString(fmt.Sprintf("\n  %d: %v", i+1, issue))
	}
	return sb.String()
}

// Unwrap exposes the individual issues to errors.Is and errors.As
func (e *ConfigurationError) Unwrap() []error {
	return e.Issues
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component string, issues ...error) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issues:    issues,
	}
}

// MachineError represents state machine operation errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// NewMachineNotStartedError creates a new machine not started error
func NewMachineNotStartedError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeMachineNotStarted,
		Operation: operation,
		Message:   "state machine is not initialized",
	}
}

// NewMachineError creates a new machine error
func NewMachineError(code ErrorCode, operation string, message string) *MachineError {
	return &MachineError{
		Code:      code,
		Operation: operation,
		Message:   message,
	}
}

// ActionError wraps a panic raised by a model callback
type ActionError struct {
	Action      string
	State       string
	Event       string
	OriginalErr error
}

func (e *ActionError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s failed in state '%s' on %s: %v", e.Action, e.State, e.Event, e.OriginalErr)
	}
	return fmt.Sprintf("%s failed in state '%s' on %s", e.Action, e.State, e.Event)
}

func (e *ActionError) Unwrap() error {
	return e.OriginalErr
}

// NewActionError creates a new callback failure error
func NewActionError(action, state string, event *Event, err error) *ActionError {
	return &ActionError{
		Action:      action,
		State:       state,
		Event:       event.String(),
		OriginalErr: err,
	}
}

// IsStateError checks if an error is a StateError
func IsStateError(err error) bool {
	var e *StateError
	return errors.As(err, &e)
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsMachineError checks if an error is a MachineError
func IsMachineError(err error) bool {
	var e *MachineError
	return errors.As(err, &e)
}

// IsActionError checks if an error is an ActionError
func IsActionError(err error) bool {
	var e *ActionError
	return errors.As(err, &e)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		stateErr   *StateError
		machineErr *MachineError
		configErr  *ConfigurationError
		actionErr  *ActionError
	)
	switch {
	case errors.As(err, &machineErr):
		return machineErr.Code
	case errors.As(err, &actionErr):
		return ErrCodeActionFailed
	case errors.As(err, &configErr):
		return ErrCodeInvalidConfiguration
	case errors.As(err, &stateErr):
		return stateErr.Code
	default:
		return ErrCodeNone
	}
}
