package realtime

import (
	"go.uber.org/zap"
)

// WebSocketLogger provides structured logging for viewer connections
type WebSocketLogger struct {
	logger *zap.Logger
}

func NewWebSocketLogger() *WebSocketLogger {
	return &WebSocketLogger{
		logger: zap.L().With(zap.String("component", "realtime")),
	}
}

func (l *WebSocketLogger) Info(event string, viewerID string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("viewer_id", viewerID),
	}, fields...)
	l.logger.Info("websocket_event", allFields...)
}

func (l *WebSocketLogger) Error(event string, viewerID string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("viewer_id", viewerID),
		zap.Error(err),
	}, fields...)
	l.logger.Error("websocket_error", allFields...)
}

func (l *WebSocketLogger) Warn(event string, viewerID string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("viewer_id", viewerID),
	}, fields...)
	l.logger.Warn("websocket_warning", allFields...)
}
