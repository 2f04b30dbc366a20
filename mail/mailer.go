package mail

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// DefaultSendGridHost is the SendGrid API base URL.
const DefaultSendGridHost = "https://api.sendgrid.com"

// Mailer delivers an Envelope.
type Mailer interface {
	Send(ctx context.Context, env Envelope) error
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey string
	host   string
	logger *zap.Logger
}

// NewSendGridMailer returns a mailer for apiKey. An empty host uses
// DefaultSendGridHost.
func NewSendGridMailer(apiKey, host string, logger *zap.Logger) *SendGridMailer {
	if host == "" {
		host = DefaultSendGridHost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{apiKey: apiKey, host: host, logger: logger.Named("sendgrid")}
}

func (m *SendGridMailer) Send(ctx context.Context, env Envelope) error {
	if m.apiKey == "" {
		return fmt.Errorf("mail: sendgrid api key is empty")
	}
	from, err := parseAddress(env.From)
	if err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	to, err := parseAddress(env.To)
	if err != nil {
		return fmt.Errorf("mail: to address: %w", err)
	}

	message := sgmail.NewSingleEmail(from, env.Subject, to, env.Text, env.HTML)
	if env.ReplyTo != "" {
		if replyTo, err := parseAddress(env.ReplyTo); err == nil {
			message.SetReplyTo(replyTo)
		}
	}

	req := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		m.logger.Error("sendgrid rejected message", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("mail: sendgrid send failed: status=%d", resp.StatusCode)
	}

	m.logger.Info("mail sent", zap.Int("status", resp.StatusCode), zap.String("to", to.Address), zap.String("subject", env.Subject))
	return nil
}

func parseAddress(s string) (*sgmail.Email, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return sgmail.NewEmail(addr.Name, addr.Address), nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger.Named("mail")}
}

func (m *LogMailer) Send(_ context.Context, env Envelope) error {
	m.logger.Info("simulated mail delivery",
		zap.String("from", env.From),
		zap.String("to", env.To),
		zap.String("reply_to", env.ReplyTo),
		zap.String("subject", env.Subject),
		zap.String("text", env.Text),
	)
	return nil
}
