package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/storefront/cart"
	"go.uber.org/zap"
)

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`

var _ cart.CartCreator = (*Client)(nil)

// CreateCart submits lines and returns the checkout URL. GraphQL errors and
// userErrors are reported in the result, not as an error, and any partial
// data delivered with GraphQL errors is kept.
func (c *Client) CreateCart(ctx context.Context, lines []cart.LineInput) (cart.CheckoutResult, error) {
	var data struct {
		CartCreate *struct {
			Cart *struct {
				ID          string `json:"id"`
				CheckoutURL string `json:"checkoutUrl"`
			} `json:"cart"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"cartCreate"`
	}

	raw, err := c.Query(ctx, cartCreateMutation, map[string]any{"input": map[string]any{"lines": lines}})
	var gqlErr *GraphQLError
	if err != nil && !errors.As(err, &gqlErr) {
		return cart.CheckoutResult{}, err
	}

	// Errors may arrive alongside partial data; keep both so the cart can
	// prefer a checkout URL, then userErrors, over top-level errors.
	var res cart.CheckoutResult
	if gqlErr != nil {
		res.Errors = gqlErr.Messages()
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &data); err != nil {
			if gqlErr != nil {
				return res, nil
			}
			return cart.CheckoutResult{}, fmt.Errorf("commerce: decode data: %w", err)
		}
	} else if gqlErr == nil {
		return cart.CheckoutResult{}, fmt.Errorf("commerce: empty data")
	}
	if data.CartCreate == nil {
		return res, nil
	}
	for _, ue := range data.CartCreate.UserErrors {
		res.UserErrors = append(res.UserErrors, ue.Message)
	}
	if data.CartCreate.Cart != nil {
		res.CartID = data.CartCreate.Cart.ID
		res.CheckoutURL = data.CartCreate.Cart.CheckoutURL
	}
	c.logger.Info("cart created", zap.String("cart_id", res.CartID), zap.Int("user_errors", len(res.UserErrors)))
	return res, nil
}
