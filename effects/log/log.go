// Package log emits structured log records from inside effects.
package log

import (
	"github.com/on-the-ground/effect_ive_runtime/effects"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is one log record: level, message and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// LogEff logs msg through the runtime's logger. The record carries the running fiber's id.
// Logging never fails and never suspends the fiber.
func LogEff[R, E any](level LogLevel, msg string, fields map[string]interface{}) effects.Effect[R, E, effects.Unit] {
	return Emit[R, E](LogPayload{Level: level, Message: msg, Fields: fields})
}

// Emit logs a prepared payload. See LogEff.
func Emit[R, E any](payload LogPayload) effects.Effect[R, E, effects.Unit] {
	return effects.DescriptorWith(func(d effects.Descriptor) effects.Effect[R, E, effects.Unit] {
		return effects.Do[R, E](func() {
			write(d.Logger, payload)
		})
	})
}

func Debug[R, E any](msg string, fields map[string]interface{}) effects.Effect[R, E, effects.Unit] {
	return LogEff[R, E](LogDebug, msg, fields)
}

func Info[R, E any](msg string, fields map[string]interface{}) effects.Effect[R, E, effects.Unit] {
	return LogEff[R, E](LogInfo, msg, fields)
}

func Warn[R, E any](msg string, fields map[string]interface{}) effects.Effect[R, E, effects.Unit] {
	return LogEff[R, E](LogWarn, msg, fields)
}

func Error[R, E any](msg string, fields map[string]interface{}) effects.Effect[R, E, effects.Unit] {
	return LogEff[R, E](LogError, msg, fields)
}

func write(logger *zap.Logger, payload LogPayload) {
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogInfo:
		logger.Info(payload.Message, fields...)
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}
