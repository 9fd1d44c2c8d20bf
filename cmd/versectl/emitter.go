package main

import (
	"log/slog"

	"verse/core/events"
	"verse/core/types"
)

// logEmitter broadcasts engine events to the structured logger, the CLI's
// only consumer of core/events.Emitter: there is no RPC or indexer layer in
// a standalone deployment, so logging is the terminus.
type logEmitter struct {
	logger *slog.Logger
}

func newLogEmitter(logger *slog.Logger) *logEmitter {
	return &logEmitter{logger: logger}
}

func (e *logEmitter) Emit(evt events.Event) {
	if e == nil || e.logger == nil || evt == nil {
		return
	}
	attrs := []any{}
	if typed, ok := evt.(*types.Event); ok {
		for k, v := range typed.Attributes {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	e.logger.Info(evt.EventType(), attrs...)
}
