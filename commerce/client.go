package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultAPIVersion = "2024-01"
	DefaultTimeout    = 10 * time.Second

	tokenHeader = "X-Shopify-Storefront-Access-Token"
)

// Config configures a Client.
type Config struct {
	StoreDomain       string        `yaml:"store_domain"`
	APIVersion        string        `yaml:"api_version"`
	StorefrontToken   string        `yaml:"storefront_token"`
	CategoryMetafield string        `yaml:"category_metafield"`
	Timeout           time.Duration `yaml:"timeout"`

	// Endpoint overrides the GraphQL URL derived from StoreDomain.
	Endpoint string `yaml:"endpoint"`
}

// Configured reports whether the required credentials are present.
func (c Config) Configured() bool {
	if strings.TrimSpace(c.StorefrontToken) == "" {
		return false
	}
	return strings.TrimSpace(c.StoreDomain) != "" || c.Endpoint != ""
}

// GraphQLEndpoint returns the Storefront API URL. Any scheme on StoreDomain
// is dropped; the API is always reached over https.
func (c Config) GraphQLEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	domain := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(c.StoreDomain), "https://"), "http://")
	domain = strings.TrimSuffix(domain, "/")
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
}

// Client talks to the Storefront GraphQL API. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	endpoint string
	category *Metafield
	logger   *zap.Logger
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

	c := &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader(tokenHeader, cfg.StorefrontToken),
		endpoint: cfg.GraphQLEndpoint(),
		logger:   logger.Named("commerce"),
	}
	if cfg.CategoryMetafield != "" {
		if mf, ok := ParseMetafieldDescriptor(cfg.CategoryMetafield); ok {
			c.category = &mf
		} else {
			c.logger.Warn("ignoring invalid category metafield descriptor", zap.String("descriptor", cfg.CategoryMetafield))
		}
	}
	return c, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors []GraphQLErrorEntry `json:"errors"`
}

// Query posts a raw GraphQL document and returns the data member. A response
// carrying errors yields *GraphQLError.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	var out graphqlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{Query: query, Variables: variables}).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("commerce: request: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("storefront API error", zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return nil, &StatusError{Code: resp.StatusCode(), Status: resp.Status(), Body: resp.String()}
	}
	if len(out.Errors) > 0 {
		c.logger.Warn("storefront graphql errors", zap.Strings("messages", (&GraphQLError{Errors: out.Errors}).Messages()))
		return out.Data, &GraphQLError{Errors: out.Errors}
	}
	return out.Data, nil
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, into any) error {
	data, err := c.Query(ctx, query, variables)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("commerce: empty data")
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("commerce: decode data: %w", err)
	}
	return nil
}
