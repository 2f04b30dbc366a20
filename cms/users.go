package cms

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"

	"github.com/MrEthical07/storefront/session"
	"go.uber.org/zap"
)

// wpUser is the subset of the WordPress user resource the storefront reads.
type wpUser struct {
	ID          int64             `json:"id"`
	Username    string            `json:"username"`
	Slug        string            `json:"slug"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Roles       []string          `json:"roles"`
	AvatarURLs  map[string]string `json:"avatar_urls"`
	Description *string           `json:"description"`
	URL         *string           `json:"url"`
}

func (u wpUser) toSession() *session.User {
	username := u.Username
	if username == "" {
		username = u.Slug
	}
	name := u.Name
	if name == "" {
		name = username
	}
	out := &session.User{
		ID:          u.ID,
		Username:    username,
		Email:       u.Email,
		Name:        name,
		Roles:       u.Roles,
		Description: u.Description,
		URL:         u.URL,
	}
	if avatar, ok := u.AvatarURLs["96"]; ok {
		out.Avatar = &avatar
	}
	return out
}

var _ session.Directory = (*Client)(nil)

// FetchUser loads the authoritative record for id.
func (c *Client) FetchUser(ctx context.Context, id int64) (*session.User, error) {
	var u wpUser
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&u).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Get(c.rest + "/wp/v2/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("cms: fetch user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	if u.ID != id {
		return nil, fmt.Errorf("%w: directory returned id %d for %d", ErrUserNotFound, u.ID, id)
	}
	return u.toSession(), nil
}

// Registration is a new subscriber account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var registrationMessages = map[string]string{
	"existing_user_login":     "Username already exists. Please choose a different username.",
	"existing_user_email":     "Email address already registered. Please use a different email or try logging in.",
	"rest_cannot_create_user": "User registration is currently disabled. Please contact administrator.",
	"rest_user_invalid_email": "Invalid email address format. Please check and try again.",
}

var registrationStatusMessages = map[int]string{
	http.StatusUnauthorized: "Server authentication failed. Please contact administrator.",
	http.StatusForbidden:    "Registration is currently disabled. Please contact administrator.",
	http.StatusNotFound:     "Registration service not found. Please contact administrator.",
}

// CreateUser registers a subscriber. Rejections are *RegistrationError with
// a registrant-facing message.
func (c *Client) CreateUser(ctx context.Context, reg Registration) (*session.User, error) {
	var (
		u     wpUser
		wpErr wpError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"username": reg.Username,
			"email":    reg.Email,
			"password": reg.Password,
			"roles":    []string{"subscriber"},
		}).
		SetResult(&u).
		SetError(&wpErr).
		Post(c.rest + "/wp/v2/users")
	if err != nil {
		return nil, transportRegistrationError(err)
	}
	if resp.IsError() {
		rerr := registrationError(resp.StatusCode(), wpErr)
		c.logger.Warn("registration rejected",
			zap.Int("status", rerr.Status),
			zap.String("code", rerr.Code),
			zap.String("username", reg.Username),
		)
		return nil, rerr
	}

	c.logger.Info("registration succeeded", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u.toSession(), nil
}

func registrationError(status int, e wpError) *RegistrationError {
	out := &RegistrationError{Status: status, Code: e.Code}
	if msg, ok := registrationMessages[e.Code]; ok {
		out.Message = msg
		return out
	}
	if e.Code == "rest_invalid_param" {
		msg := e.Message
		if msg == "" {
			msg = "Invalid registration data"
		}
		out.Message = "Registration error: " + msg
		return out
	}
	if msg, ok := registrationStatusMessages[status]; ok {
		out.Message = msg
		return out
	}
	if e.Message != "" {
		out.Message = e.Message
	} else {
		out.Message = fmt.Sprintf("Registration failed: upstream status %d", status)
	}
	return out
}

func transportRegistrationError(err error) *RegistrationError {
	var (
		netErr net.Error
		dnsErr *net.DNSError
	)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.As(err, &dnsErr):
		return &RegistrationError{Message: "Unable to connect to registration server. Please try again later.", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &RegistrationError{Message: "Registration request timed out. Please try again.", Err: err}
	default:
		return &RegistrationError{Message: "Registration failed: " + err.Error(), Err: err}
	}
}
