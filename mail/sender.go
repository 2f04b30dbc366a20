package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config selects the delivery provider and addresses.
type Config struct {
	From           string `yaml:"from"`
	To             string `yaml:"to"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SendGridHost   string `yaml:"sendgrid_host"`
}

// Delivery reports how a message was handled.
type Delivery struct {
	Simulated bool `json:"simulated,omitempty"`
}

// Sender renders storefront messages and hands them to a Mailer.
type Sender struct {
	from      string
	to        string
	mailer    Mailer
	fallback  *LogMailer
	logger    *zap.Logger
	simulated bool
}

// NewSender builds a Sender from cfg. A nil mailer selects SendGrid when an
// API key is set. Missing addresses or provider force simulated delivery.
func NewSender(cfg Config, mailer Mailer, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sender{
		from:     FormatFrom(cfg.From),
		to:       cfg.To,
		fallback: NewLogMailer(logger),
		logger:   logger.Named("mail"),
	}
	switch {
	case mailer != nil:
		s.mailer = mailer
	case cfg.SendGridAPIKey != "":
		s.mailer = NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridHost, logger)
	}

	switch {
	case s.from == "" || s.to == "":
		s.logger.Warn("EMAIL_FROM or EMAIL_TO not configured; messages will be logged")
		s.simulated = true
	case s.mailer == nil:
		s.logger.Warn("no mail provider configured; messages will be logged")
		s.simulated = true
	}
	return s
}

// Simulated reports whether messages are only logged.
func (s *Sender) Simulated() bool {
	return s.simulated
}

// SendContact validates and delivers a contact-form message.
func (s *Sender) SendContact(ctx context.Context, msg ContactMessage) (Delivery, error) {
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		return Delivery{}, err
	}
	html, err := render(contactTemplate, msg)
	if err != nil {
		return Delivery{}, fmt.Errorf("mail: render contact: %w", err)
	}
	return s.deliver(ctx, Envelope{
		From:    s.from,
		To:      s.to,
		ReplyTo: msg.Email,
		Subject: msg.subject(),
		Text:    msg.Message,
		HTML:    html,
	})
}

// SendBooking validates and delivers an appointment request to the
// configured recipient. The request's own To is informational only.
func (s *Sender) SendBooking(ctx context.Context, req BookingRequest) (Delivery, error) {
	if err := req.Validate(); err != nil {
		return Delivery{}, err
	}
	html, err := render(bookingTemplate, req)
	if err != nil {
		return Delivery{}, fmt.Errorf("mail: render booking: %w", err)
	}
	if req.To != "" && req.To != s.to {
		s.logger.Info("booking requested alternate recipient", zap.String("requested_to", req.To))
	}
	return s.deliver(ctx, Envelope{
		From:    s.from,
		To:      s.to,
		ReplyTo: req.Email,
		Subject: "New Booking Request from " + req.Name,
		Text:    req.Message,
		HTML:    html,
	})
}

func (s *Sender) deliver(ctx context.Context, env Envelope) (Delivery, error) {
	if s.simulated {
		return Delivery{Simulated: true}, s.fallback.Send(ctx, env)
	}
	if err := s.mailer.Send(ctx, env); err != nil {
		return Delivery{}, err
	}
	return Delivery{}, nil
}
