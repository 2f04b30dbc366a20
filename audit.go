package storefront

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/internal/audit"
	"github.com/MrEthical07/storefront/jwt"
	"github.com/MrEthical07/storefront/password"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEvent is one audit record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher.
type AuditSink = audit.Sink

type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	LoggerSink     = audit.LoggerSink
)

func NewChannelSink(buffer int) *ChannelSink        { return audit.NewChannelSink(buffer) }
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }
func NewLoggerSink(logger *zap.Logger) *LoggerSink  { return audit.NewLoggerSink(logger) }

// Audit event types.
const (
	AuditLoginSuccess     = "login_success"
	AuditLoginFailure     = "login_failure"
	AuditLoginRateLimited = "login_rate_limited"
	AuditLogout           = "logout"
	AuditSessionRejected  = "session_rejected"
	AuditSessionRefreshed = "session_refreshed"
	AuditRegisterSuccess  = "register_success"
	AuditRegisterFailure  = "register_failure"
	AuditContactSent      = "contact_sent"
	AuditBookingSent      = "booking_sent"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID int64, username string, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	ev := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Username:  username,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if userID != 0 {
		ev.UserID = strconv.FormatInt(userID, 10)
	}
	if err != nil {
		ev.Error = string(auditErrorCode(err))
	}
	e.audit.Emit(ctx, ev)
}

// AuditErrorCode is the stable error classification carried in audit
// events. Raw error text never reaches a sink.
type AuditErrorCode string

const (
	AuditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	AuditErrRateLimited        AuditErrorCode = "rate_limited"
	AuditErrInvalidInput       AuditErrorCode = "invalid_input"
	AuditErrNotConfigured      AuditErrorCode = "not_configured"
	AuditErrRegistration       AuditErrorCode = "registration_rejected"
	AuditErrSession            AuditErrorCode = "session_invalid"
	AuditErrUpstream           AuditErrorCode = "upstream"
	AuditErrInternal           AuditErrorCode = "internal"
)

func auditErrorCode(err error) AuditErrorCode {
	var re *cms.RegistrationError
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, password.ErrInvalidCredentials):
		return AuditErrInvalidCredentials
	case errors.Is(err, ErrRateLimited):
		return AuditErrRateLimited
	case errors.Is(err, ErrInvalidInput):
		return AuditErrInvalidInput
	case errors.Is(err, ErrNotConfigured):
		return AuditErrNotConfigured
	case errors.As(err, &re):
		return AuditErrRegistration
	case errors.Is(err, jwt.ErrExpired), errors.Is(err, jwt.ErrInvalid):
		return AuditErrSession
	case errors.Is(err, ErrUpstream):
		return AuditErrUpstream
	default:
		return AuditErrInternal
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditFailed reports audit events whose sink panicked during delivery.
func (e *Engine) AuditFailed() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Failed()
}
