package hsm

import (
	"context"
	"log/slog"
)

// LoggingObserver writes machine activity to a structured logger
type LoggingObserver struct {
	BaseObserver
	logger *slog.Logger
	level  slog.Level
}

// NewLoggingObserver creates a logging observer. Transitions and lifecycle
// changes are logged at level; entries, exits, guards and callbacks one
// step more verbose.
func NewLoggingObserver(logger *slog.Logger, level slog.Level) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{
		logger: logger,
		level:  level,
	}
}

// NewDefaultLoggingObserver logs through slog.Default at info level
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(slog.Default(), slog.LevelInfo)
}

func (o *LoggingObserver) log(level slog.Level, msg string, args ...any) {
	o.logger.Log(context.Background(), level, msg, args...)
}

func (o *LoggingObserver) verbose() slog.Level {
	return o.level - 4
}

func eventAttrs(event *Event) []any {
	if event == nil {
		return nil
	}
	return []any{slog.String("event", event.Label()), slog.String("event_id", event.ID().String())}
}

// OnTransition logs transitions
func (o *LoggingObserver) OnTransition(from string, to string, event *Event) {
	o.log(o.level, "transition", append([]any{slog.String("from", from), slog.String("to", to)}, eventAttrs(event)...)...)
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(state string, event *Event) {
	o.log(o.verbose(), "entered state", append([]any{slog.String("state", state)}, eventAttrs(event)...)...)
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(state string, event *Event) {
	o.log(o.verbose(), "exited state", append([]any{slog.String("state", state)}, eventAttrs(event)...)...)
}

// OnGuardEvaluation logs guard results
func (o *LoggingObserver) OnGuardEvaluation(state string, event *Event, result bool) {
	o.log(o.verbose(), "guard evaluated", append([]any{slog.String("state", state), slog.Bool("result", result)}, eventAttrs(event)...)...)
}

// OnEventRejected logs ignored events
func (o *LoggingObserver) OnEventRejected(event *Event, reason string) {
	o.log(o.level, "event ignored", append([]any{slog.String("reason", reason)}, eventAttrs(event)...)...)
}

// OnError logs callback failures
func (o *LoggingObserver) OnError(err error) {
	o.log(slog.LevelError, "state machine error", slog.Any("error", err))
}

// OnActionExecution logs callback invocations
func (o *LoggingObserver) OnActionExecution(actionType string, state string, event *Event) {
	o.log(o.verbose(), "running callback", append([]any{slog.String("callback", actionType), slog.String("state", state)}, eventAttrs(event)...)...)
}

// OnMachineStarted logs machine start
func (o *LoggingObserver) OnMachineStarted() {
	o.log(o.level, "state machine started")
}

// OnMachineTerminated logs machine termination
func (o *LoggingObserver) OnMachineTerminated() {
	o.log(o.level, "state machine terminated")
}
