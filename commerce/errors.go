package commerce

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the store domain or storefront token is missing.
	ErrNotConfigured = errors.New("commerce: storefront API not configured")
	// ErrUnauthorized means the storefront token was rejected.
	ErrUnauthorized = errors.New("commerce: storefront token unauthorized")
	// ErrProductNotFound is returned by ProductByHandle for unknown handles.
	ErrProductNotFound = errors.New("commerce: product not found")
)

// StatusError is a non-2xx HTTP response from the platform.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("commerce: upstream status %d: %s", e.Code, e.Status)
}

// GraphQLErrorEntry is one element of a GraphQL "errors" array.
type GraphQLErrorEntry struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLError carries the upstream errors verbatim.
type GraphQLError struct {
	Errors []GraphQLErrorEntry
}

func (e *GraphQLError) Error() string {
	if len(e.Errors) == 0 || e.Errors[0].Message == "" {
		return "commerce: graphql query failed"
	}
	return "commerce: graphql: " + e.Errors[0].Message
}

// Messages returns every upstream message in order.
func (e *GraphQLError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		out = append(out, entry.Message)
	}
	return out
}

// Unauthorized reports whether any entry carries extensions.code UNAUTHORIZED.
func (e *GraphQLError) Unauthorized() bool {
	for _, entry := range e.Errors {
		if code, _ := entry.Extensions["code"].(string); code == "UNAUTHORIZED" {
			return true
		}
	}
	return false
}

// Is makes errors.Is(err, ErrUnauthorized) hold for unauthorized responses.
func (e *GraphQLError) Is(target error) bool {
	return target == ErrUnauthorized && e.Unauthorized()
}
