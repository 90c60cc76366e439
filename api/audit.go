package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess     AuditEvent = "login_success"
	AuditLoginFailure     AuditEvent = "login_failure"
	AuditLoginRateLimited AuditEvent = "login_rate_limited"
	AuditRegister         AuditEvent = "register"
	AuditLogout           AuditEvent = "logout"
	AuditSessionRevived   AuditEvent = "session_revived"
	AuditResetRequested   AuditEvent = "reset_requested"
	AuditResetConsumed    AuditEvent = "reset_consumed"
	AuditProfileUpdated   AuditEvent = "profile_updated"
	AuditPostCreated      AuditEvent = "post_created"
	AuditPostDeleted      AuditEvent = "post_deleted"
	AuditTradeClosed      AuditEvent = "trade_closed"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

// logEvent is a convenience for events tied to a known user.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, userID string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("user_id", userID),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a failed authentication attempt.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
