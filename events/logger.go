package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/pkg/logging"
)

// zerologAdapter 把 watermill 的日志接到全局 zerolog 上。
type zerologAdapter struct {
	fields watermill.LogFields
}

// NewLogger 返回写入 pkg/logging 全局 logger 的 watermill.LoggerAdapter。
func NewLogger() watermill.LoggerAdapter {
	return &zerologAdapter{}
}

func (a *zerologAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	return e.Str("component", "events").Fields(map[string]any(a.fields.Add(fields)))
}

func (a *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(logging.Error(), fields).Err(err).Msg(msg)
}

func (a *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(logging.Info(), fields).Msg(msg)
}

func (a *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(logging.Debug(), fields).Msg(msg)
}

func (a *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	l := logging.Logger()
	a.event(l.Trace(), fields).Msg(msg)
}

func (a *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{fields: a.fields.Add(fields)}
}
