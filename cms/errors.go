package cms

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("cms: WordPress credentials not configured")
	ErrUserNotFound  = errors.New("cms: user not found")
	ErrPostNotFound  = errors.New("cms: post not found")
)

// StatusError is a non-2xx response from WordPress.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: upstream status %d", e.Code)
}

// GraphQLError carries WPGraphQL error messages verbatim.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "cms: graphql query failed"
	}
	return "cms: graphql: " + e.Messages[0]
}

// RegistrationError is a rejected registration. Message is safe to show to
// the registrant.
type RegistrationError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RegistrationError) Error() string {
	return e.Message
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
