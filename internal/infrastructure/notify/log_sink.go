package notify

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

// LogSink только пишет событие в лог (NOTIFY_DRIVER=none).
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(logger logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, ev *Event) error {
	s.logger.Debugf("notification %s on %s: %s", ev.ID, ev.Channel, ev.Payload)
	return nil
}
