package mail

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatFrom(t *testing.T) {
	tests := map[string]string{
		"":                               "",
		"  shop@example.com ":            "shop@example.com",
		"Vivarium Shop shop@example.com": "Vivarium Shop <shop@example.com>",
		"Vivarium <shop@example.com>":    "Vivarium <shop@example.com>",
		"no address here":                "no address here",
	}
	for in, want := range tests {
		if got := FormatFrom(in); got != want {
			t.Fatalf("FormatFrom(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContactValidation(t *testing.T) {
	valid := ContactMessage{Name: " Ana ", Email: " ana@example.com ", Message: " hi "}.Normalize()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if valid.subject() != "New contact from Ana" {
		t.Fatalf("default subject = %q", valid.subject())
	}

	for _, bad := range []ContactMessage{
		{Email: "ana@example.com", Message: "hi"},
		{Name: "Ana", Email: "ana@example", Message: "hi"},
		{Name: "Ana", Email: "ana @example.com", Message: "hi"},
		{Name: "Ana", Email: "ana@example.com"},
	} {
		if err := bad.Normalize().Validate(); !errors.Is(err, ErrInvalidContact) {
			t.Fatalf("Validate(%+v) = %v, want ErrInvalidContact", bad, err)
		}
	}
}

func TestContactTemplateEscapes(t *testing.T) {
	html, err := render(contactTemplate, ContactMessage{Name: `<script>x</script>`, Email: "a@b.co", Message: `5 > 3 & "q"`})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") || !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("name not escaped: %s", html)
	}
	if strings.Contains(html, "Subject:") {
		t.Fatalf("empty subject rendered: %s", html)
	}
}

func TestBookingTemplateDefaults(t *testing.T) {
	html, err := render(bookingTemplate, BookingRequest{Name: "Ana", Email: "a@b.co"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Not provided", "Not specified", "None"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
	if err := (BookingRequest{Name: "Ana"}).Validate(); !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("expected ErrInvalidBooking, got %v", err)
	}
}
