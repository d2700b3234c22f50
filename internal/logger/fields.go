package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/utils"
)

// Structured field keys shared by every component.
const (
	FieldProvider     = "ai_provider"
	FieldModel        = "ai_model"
	FieldOpeningID    = "opening_id"
	FieldOpeningTitle = "opening_title"
	FieldDocument     = "document"
	FieldContentHash  = "content_hash"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, dropping entries
// whose key or value is blank.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the generation provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// OpeningFields identifies an opening.
func OpeningFields(id, title string) []zap.Field {
	return StringFields(
		StringField{Key: FieldOpeningID, Value: id},
		StringField{Key: FieldOpeningTitle, Value: title},
	)
}

// DocumentFields identifies one candidate document screened for an opening.
// The content hash is shortened.
func DocumentFields(document, openingID, hash string) []zap.Field {
	return StringFields(
		StringField{Key: FieldDocument, Value: document},
		StringField{Key: FieldOpeningID, Value: openingID},
		StringField{Key: FieldContentHash, Value: utils.ShortHash(hash)},
	)
}
