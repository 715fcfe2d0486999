package audit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/getredash/redash-sub002/pkg/logging"
)

var fixedTime = time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)

// setupTestAuditor creates an auditor with an observer to capture log entries.
func setupTestAuditor(t *testing.T) (*SecurityAuditor, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	auditor := NewSecurityAuditor(zap.New(core))
	auditor.now = func() time.Time { return fixedTime }
	return auditor, recorded
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	raw, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json field missing")

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestLogInjectionAttempt(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)
	queryID := uuid.New()

	auditor.LogInjectionAttempt(queryID, "Search customers", SQLInjectionDetails{
		ParamName:   "search",
		ParamValue:  "'; DROP TABLE users--",
		Fingerprint: "s&1c",
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "security_audit", entry.LoggerName)
	assert.Equal(t, "SQL injection attempt detected", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, queryID.String(), fields["query_id"])
	assert.Equal(t, "search", fields["param_name"])
	assert.Equal(t, "s&1c", fields["fingerprint"])
	assert.Equal(t, "critical", fields["severity"])

	event := decodeEvent(t, entry)
	assert.Equal(t, EventSQLInjectionAttempt, event.EventType)
	assert.Equal(t, queryID, event.QueryID)
	assert.Equal(t, "Search customers", event.QueryName)
	assert.True(t, fixedTime.Equal(event.Timestamp))
	assert.Equal(t, map[string]any{
		"param_name":  "search",
		"param_value": "'; DROP TABLE users--",
		"fingerprint": "s&1c",
	}, event.Details)
}

func TestLogInjectionAttempt_TruncatesValue(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)

	long := strings.Repeat("' OR 1=1 ", 100)
	auditor.LogInjectionAttempt(uuid.New(), "q", SQLInjectionDetails{ParamName: "p", ParamValue: long})

	event := decodeEvent(t, recorded.All()[0])
	details := event.Details.(map[string]any)
	assert.Equal(t, logging.SanitizeValue(long), details["param_value"])
	assert.Less(t, len(details["param_value"].(string)), len(long))
}

func TestLogParameterValidation(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)
	queryID := uuid.New()

	auditor.LogParameterValidation(queryID, "Orders", []string{"Start Date", "Customer"})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "Parameter validation failed", logs[0].Message)
	assert.Equal(t, "warning", logs[0].ContextMap()["severity"])

	event := decodeEvent(t, logs[0])
	assert.Equal(t, EventParameterValidation, event.EventType)
	assert.Equal(t, map[string]any{"missing": []any{"Start Date", "Customer"}}, event.Details)
}

func TestLogQueryExecution(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)
	queryID := uuid.New()

	auditor.LogQueryExecution(queryID, "Orders", "p_status=pending", 12)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Equal(t, "Orders", logs[0].ContextMap()["query_name"])

	event := decodeEvent(t, logs[0])
	assert.Equal(t, EventQueryExecution, event.EventType)
	assert.Equal(t, "info", event.Severity)
	assert.Equal(t, map[string]any{"url_params": "p_status=pending", "rows": float64(12)}, event.Details)
}
