package logger

import (
	"time"

	"go.uber.org/zap"
)

// Polling session field names.
const (
	FieldSessionID        = "session_id"
	FieldEndpoint         = "endpoint"
	FieldInterval         = "interval"
	FieldPreviousInterval = "previous_interval"
	FieldRetryCount       = "retry_count"
	FieldMaxRetries       = "max_retries"
	FieldErrorKind        = "error_kind"
	FieldLastUpdate       = "last_update"
	FieldHasChanges       = "has_changes"
)

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func Any(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// Endpoint tags the polled path.
func Endpoint(path string) zap.Field {
	return zap.String(FieldEndpoint, path)
}

// Interval logs a polling interval in milliseconds, the unit the
// simulator recommends intervals in.
func Interval(key string, d time.Duration) zap.Field {
	return zap.Int64(key, d.Milliseconds())
}

// Retries logs the consecutive failure count of a session.
func Retries(n int) zap.Field {
	return zap.Int(FieldRetryCount, n)
}
