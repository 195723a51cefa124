package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSession is the structured log field key for the interview session id.
	FieldSession = "session_id"
	// FieldPhase is the structured log field key for the session phase.
	FieldPhase = "phase"
	// FieldQuestion is the structured log field key for the 0-based question index.
	FieldQuestion = "question_index"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to
// a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithSession attaches the session id to the provided logger.
func WithSession(logger *zap.Logger, sessionID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldSession, Value: sessionID})...)
}
