package errorhandler

import (
	"context"
	"net/http"

	"github.com/plug/fuel-api/internal/pkg/logger"
	"github.com/plug/fuel-api/internal/pkg/response"
)

// LogInternal records an unexpected failure with the request's logger.
// The error detail stays in the log; callers send only a generic message.
func LogInternal(ctx context.Context, operation string, err error) {
	logger.FromContext(ctx).Error().
		Err(err).
		Str("operation", operation).
		Msg("Request failed")
}

// Internal logs err and writes the generic 500 envelope.
func Internal(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	LogInternal(ctx, operation, err)
	response.InternalError(w)
}

// LogValidation records rejected input at warn level.
func LogValidation(ctx context.Context, operation string, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Str("operation", operation).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}
