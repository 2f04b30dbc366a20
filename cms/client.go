package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	RESTEndpoint    string        `yaml:"rest_endpoint"`
	GraphQLEndpoint string        `yaml:"graphql_endpoint"`
	User            string        `yaml:"user"`
	AppPassword     string        `yaml:"app_password"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Configured reports whether the application password credentials are set.
func (c Config) Configured() bool {
	return c.User != "" && c.AppPassword != ""
}

// Client is safe for concurrent use.
type Client struct {
	http    *resty.Client
	rest    string
	graphql string
	logger  *zap.Logger
}

// New builds a Client. It returns ErrNotConfigured when credentials are missing.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetBasicAuth(cfg.User, cfg.AppPassword).
			SetHeader("Content-Type", "application/json"),
		rest:    strings.TrimSuffix(cfg.RESTEndpoint, "/"),
		graphql: cfg.GraphQLEndpoint,
		logger:  logger.Named("cms"),
	}, nil
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, into any) error {
	if c.graphql == "" {
		return fmt.Errorf("%w: graphql endpoint", ErrNotConfigured)
	}

	var out graphqlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"query": query, "variables": variables}).
		SetResult(&out).
		Post(c.graphql)
	if err != nil {
		return fmt.Errorf("cms: request: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	if len(out.Errors) > 0 {
		ge := &GraphQLError{}
		for _, e := range out.Errors {
			ge.Messages = append(ge.Messages, e.Message)
		}
		return ge
	}
	if len(out.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(out.Data, into); err != nil {
		return fmt.Errorf("cms: decode data: %w", err)
	}
	return nil
}

// Query forwards a raw GraphQL request body and returns the raw response.
func (c *Client) Query(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	if c.graphql == "" {
		return nil, fmt.Errorf("%w: graphql endpoint", ErrNotConfigured)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody([]byte(body)).
		Post(c.graphql)
	if err != nil {
		return nil, fmt.Errorf("cms: request: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	return json.RawMessage(resp.Body()), nil
}
