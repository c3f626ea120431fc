package store

import "go.uber.org/zap"

// Notifier shows a failure to the person using the back office.
type Notifier interface {
	Alert(message string)
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Alert(message string) {
	n.log.Warn("alert", zap.String("message", message))
}
