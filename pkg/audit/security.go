// Package audit provides security audit logging for SIEM consumption.
// Events are logged as structured JSON under the "security_audit" logger name.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a parameter value.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventParameterValidation is logged when required parameters are missing.
	EventParameterValidation SecurityEventType = "parameter_validation_failure"
	// EventQueryExecution is logged for every successful execution.
	EventQueryExecution SecurityEventType = "query_execution"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	QueryID   uuid.UUID         `json:"query_id"`
	QueryName string            `json:"query_name,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SQLInjectionDetails describes a rejected parameter value.
type SQLInjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit" name.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

func (a *SecurityAuditor) event(t SecurityEventType, queryID uuid.UUID, queryName, severity string, details any) zap.Field {
	// Marshaling these known types cannot fail
	eventJSON, _ := json.Marshal(SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: t,
		QueryID:   queryID,
		QueryName: queryName,
		Details:   details,
		Severity:  severity,
	})
	return zap.String("event_json", string(eventJSON))
}

// LogInjectionAttempt records a rejected parameter value at ERROR level.
// The value is sanitized and truncated before it is logged.
func (a *SecurityAuditor) LogInjectionAttempt(queryID uuid.UUID, queryName string, details SQLInjectionDetails) {
	details.ParamValue = logging.SanitizeValue(details.ParamValue)

	a.logger.Error("SQL injection attempt detected",
		a.event(EventSQLInjectionAttempt, queryID, queryName, "critical", details),
		zap.String("query_id", queryID.String()),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "critical"),
	)
}

// LogParameterValidation records an execution refused for missing values.
// These are usually user errors, so the level is WARN.
func (a *SecurityAuditor) LogParameterValidation(queryID uuid.UUID, queryName string, missing []string) {
	a.logger.Warn("Parameter validation failed",
		a.event(EventParameterValidation, queryID, queryName, "warning", map[string][]string{"missing": missing}),
		zap.String("query_id", queryID.String()),
		zap.Strings("missing", missing),
		zap.String("severity", "warning"),
	)
}

// LogQueryExecution records a successful execution with its URL parameters.
func (a *SecurityAuditor) LogQueryExecution(queryID uuid.UUID, queryName, urlParams string, rows int) {
	a.logger.Info("Query executed",
		a.event(EventQueryExecution, queryID, queryName, "info", map[string]any{
			"url_params": urlParams,
			"rows":       rows,
		}),
		zap.String("query_id", queryID.String()),
		zap.String("query_name", queryName),
		zap.String("severity", "info"),
	)
}
