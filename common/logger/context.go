package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so every log line emitted while serving one
// search carries the same search id and caller.
type LogFields struct {
	SearchID         *int64  // Snowflake id of one IssueIndex call
	UserUUID         *string // Caller, nil for anonymous
	OrganizationUUID *string // Organization filter of the query
	Operation        *string // IssueIndex operation (e.g., "search", "list_tags")
	Standard         *string // Security standard of a report
	Component        string  // Component name (OTel semantic convention style, e.g., "issuesearch.search")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.SearchID != nil {
		result.SearchID = new.SearchID
	}
	if new.UserUUID != nil {
		result.UserUUID = new.UserUUID
	}
	if new.OrganizationUUID != nil {
		result.OrganizationUUID = new.OrganizationUUID
	}
	if new.Operation != nil {
		result.Operation = new.Operation
	}
	if new.Standard != nil {
		result.Standard = new.Standard
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{SearchID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like filter dumps or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
