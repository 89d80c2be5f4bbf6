package receiver

import (
	"fmt"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/fidde/logring/pkg/models"
)

// OTLP semantic-convention attribute keys carrying exception details.
const (
	attrExceptionType       = "exception.type"
	attrExceptionMessage    = "exception.message"
	attrExceptionStacktrace = "exception.stacktrace"

	// attrSourceContext is emitted by logging frameworks that track the
	// originating logger category (e.g. "App.Services.UserService").
	attrSourceContext = "source_context"
)

// severityToLevel maps an OTLP severity number to a buffer level. OTLP
// reserves four numbers per tier; FATAL (21-24) maps to Critical. An unset
// number falls back to the severity text, then to Information.
func severityToLevel(num logspb.SeverityNumber, text string) models.Level {
	n := int32(num)
	switch {
	case n >= 21:
		return models.LevelCritical
	case n >= 17:
		return models.LevelError
	case n >= 13:
		return models.LevelWarning
	case n >= 9:
		return models.LevelInformation
	case n >= 5:
		return models.LevelDebug
	case n >= 1:
		return models.LevelTrace
	}

	if level, err := models.ParseLevel(text); err == nil {
		return level
	}
	return models.LevelInformation
}

// entryFromRecord converts one OTLP log record into a buffer entry. The
// conversion is total: missing fields normalize to safe defaults rather than
// failing the record.
func entryFromRecord(record *logspb.LogRecord, scopeName string, resourceAttrs map[string]string) models.LogEntry {
	attrs := extractAttributes(record.GetAttributes())

	entry := models.LogEntry{
		Timestamp:     recordTime(record),
		Level:         severityToLevel(record.GetSeverityNumber(), record.GetSeverityText()),
		Message:       record.GetBody().GetStringValue(),
		SourceContext: sourceContext(attrs, scopeName, resourceAttrs),
	}

	if exc := exceptionFromAttributes(attrs); exc != nil {
		entry.Exception = exc
	}

	return entry
}

// recordTime picks the producer timestamp, falling back to the collector's
// observed time. A zero result is normalized by the buffer at insertion.
func recordTime(record *logspb.LogRecord) time.Time {
	if ns := record.GetTimeUnixNano(); ns > 0 {
		return time.Unix(0, int64(ns))
	}
	if ns := record.GetObservedTimeUnixNano(); ns > 0 {
		return time.Unix(0, int64(ns))
	}
	return time.Time{}
}

// sourceContext resolves the emitting component: explicit source_context
// attribute, then instrumentation scope name, then resource service.name.
func sourceContext(attrs map[string]string, scopeName string, resourceAttrs map[string]string) string {
	if sc := attrs[attrSourceContext]; sc != "" {
		return sc
	}
	if scopeName != "" {
		return scopeName
	}
	return resourceAttrs["service.name"]
}

// exceptionFromAttributes builds exception info from the OTLP exception
// semantic-convention attributes. Returns nil when none are present.
func exceptionFromAttributes(attrs map[string]string) *models.ExceptionInfo {
	excType := attrs[attrExceptionType]
	excMessage := attrs[attrExceptionMessage]
	excStack := attrs[attrExceptionStacktrace]

	if excType == "" && excMessage == "" && excStack == "" {
		return nil
	}
	return &models.ExceptionInfo{
		Type:       excType,
		Message:    excMessage,
		StackTrace: excStack,
	}
}

// extractAttributes converts OTLP KeyValue attributes to a map.
func extractAttributes(attrs []*commonpb.KeyValue) map[string]string {
	result := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		result[attr.Key] = attributeValueToString(attr.Value)
	}
	return result
}

// attributeValueToString converts an OTLP attribute value to string.
func attributeValueToString(value *commonpb.AnyValue) string {
	if value == nil {
		return ""
	}

	switch v := value.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return v.StringValue
	case *commonpb.AnyValue_IntValue:
		return fmt.Sprintf("%d", v.IntValue)
	case *commonpb.AnyValue_DoubleValue:
		return fmt.Sprintf("%f", v.DoubleValue)
	case *commonpb.AnyValue_BoolValue:
		return fmt.Sprintf("%t", v.BoolValue)
	default:
		return fmt.Sprintf("%v", value)
	}
}
