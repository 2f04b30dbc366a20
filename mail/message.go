package mail

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"
	"strings"
)

var (
	ErrInvalidContact = errors.New("mail: invalid contact form")
	ErrInvalidBooking = errors.New("mail: booking requires name and email")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	fromPattern  = regexp.MustCompile(`^(.*)\s+([\w.+-]+@[\w.-]+\.[A-Za-z]{2,})$`)
)

// ValidEmail reports whether s looks like an address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// FormatFrom turns "Name addr@host" into "Name <addr@host>". Values that are
// already bracketed or are a bare address pass through trimmed.
func FormatFrom(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "<") && strings.Contains(raw, ">") {
		return raw
	}
	if m := fromPattern.FindStringSubmatch(raw); m != nil {
		name, addr := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if name != "" && addr != "" {
			return name + " <" + addr + ">"
		}
	}
	return raw
}

// Envelope is a rendered message ready for a Mailer.
type Envelope struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// ContactMessage is a contact-form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims every field.
func (m ContactMessage) Normalize() ContactMessage {
	return ContactMessage{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Subject: strings.TrimSpace(m.Subject),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate requires a name, a plausible email and a message.
func (m ContactMessage) Validate() error {
	if m.Name == "" || !ValidEmail(m.Email) || m.Message == "" {
		return ErrInvalidContact
	}
	return nil
}

func (m ContactMessage) subject() string {
	if m.Subject != "" {
		return m.Subject
	}
	return "New contact from " + m.Name
}

// BookingRequest is an appointment request.
type BookingRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Service string `json:"service,omitempty"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message,omitempty"`
	To      string `json:"to,omitempty"`
}

// Validate requires name and email.
func (b BookingRequest) Validate() error {
	if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Email) == "" {
		return ErrInvalidBooking
	}
	return nil
}

var contactTemplate = template.Must(template.New("contact").Parse(`<div style="font-family: -apple-system, BlinkMacSystemFont, Segoe UI, Roboto, sans-serif; line-height: 1.6;">
  <h2 style="margin: 0 0 12px;">New Contact Submission</h2>
  <p style="margin: 0 0 8px;"><strong>Name:</strong> {{.Name}}</p>
  <p style="margin: 0 0 8px;"><strong>Email:</strong> {{.Email}}</p>
  {{- if .Subject}}
  <p style="margin: 0 0 8px;"><strong>Subject:</strong> {{.Subject}}</p>
  {{- end}}
  <p style="margin: 12px 0 4px;"><strong>Message:</strong></p>
  <pre style="white-space: pre-wrap; margin: 0;">{{.Message}}</pre>
</div>`))

var bookingTemplate = template.Must(template.New("booking").Parse(`<h2>New Appointment Request</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{or .Phone "Not provided"}}</p>
<p><strong>Preferred Service:</strong> {{or .Service "Not specified"}}</p>
<p><strong>Preferred Date:</strong> {{or .Date "Not specified"}}</p>
<p><strong>Additional Notes:</strong> {{or .Message "None"}}</p>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
