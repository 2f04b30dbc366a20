package storefront

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/mail"
	"github.com/MrEthical07/storefront/session"
	"go.uber.org/zap"
)

// Contact validates and sends a contact-form message. Without a configured
// provider the message is logged and the delivery is marked simulated.
func (e *Engine) Contact(ctx context.Context, msg mail.ContactMessage) (mail.Delivery, error) {
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		return mail.Delivery{}, invalid("Invalid form data")
	}
	if err := e.limitHit(ctx, rate.ScopeContact, ipSubject(ctx)); err != nil {
		e.metricInc(MetricContactRateLimited)
		return mail.Delivery{}, err
	}

	d, err := e.mail.SendContact(ctx, msg)
	if err != nil {
		e.metricInc(MetricContactFailure)
		e.logger.Error("contact delivery failed", zap.Error(err))
		return mail.Delivery{}, e.deliveryError(err)
	}
	if d.Simulated {
		e.metricInc(MetricContactSimulated)
	} else {
		e.metricInc(MetricContactSent)
	}
	e.emitAudit(ctx, AuditContactSent, true, 0, "", nil, map[string]string{"simulated": strconv.FormatBool(d.Simulated)})
	return d, nil
}

// Booking sends an appointment request to the configured recipient. It
// shares the contact rate limit.
func (e *Engine) Booking(ctx context.Context, req mail.BookingRequest) (mail.Delivery, error) {
	if err := req.Validate(); err != nil {
		return mail.Delivery{}, invalid("Name and email are required")
	}
	if err := e.limitHit(ctx, rate.ScopeContact, ipSubject(ctx)); err != nil {
		e.metricInc(MetricContactRateLimited)
		return mail.Delivery{}, err
	}

	d, err := e.mail.SendBooking(ctx, req)
	if err != nil {
		e.metricInc(MetricContactFailure)
		e.logger.Error("booking delivery failed", zap.Error(err))
		return mail.Delivery{}, e.deliveryError(err)
	}
	e.metricInc(MetricBookingSent)
	e.emitAudit(ctx, AuditBookingSent, true, 0, "", nil, map[string]string{"simulated": strconv.FormatBool(d.Simulated)})
	return d, nil
}

func (e *Engine) deliveryError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Join(ErrUpstream, err)
}

// Stats is the dashboard summary for a signed-in user.
type Stats struct {
	TotalPosts    int     `json:"totalPosts"`
	TotalComments int     `json:"totalComments"`
	LastLogin     *string `json:"lastLogin"`
}

// DashboardStats returns the dashboard summary for the session in jar.
func (e *Engine) DashboardStats(ctx context.Context, jar session.CookieJar) (Stats, error) {
	res := e.Me(ctx, jar)
	if !res.Success || res.User == nil {
		return Stats{}, ErrUnauthorized
	}
	return StatsFor(res.User), nil
}

// StatsFor builds the dashboard summary for an already authenticated user.
// Post and comment totals are not tracked yet and report zero.
func StatsFor(u *session.User) Stats {
	return Stats{LastLogin: u.LastValidated}
}
