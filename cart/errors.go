package cart

import "errors"

var (
	// ErrEmptyCart is returned by Checkout when there is nothing to submit.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutFailed is returned when the cart-creation call fails without an upstream message.
	ErrCheckoutFailed = errors.New("failed to create checkout")
	// ErrInvalidItem is returned by Add for an item without a variant or
	// product id. Such lines would not survive a reload from storage.
	ErrInvalidItem = errors.New("cart item needs a variant id and a product id")
	// ErrPersist wraps storage write failures.
	ErrPersist = errors.New("cart persist failed")
)

// CheckoutError carries an upstream message verbatim, either from the API's
// user errors or from protocol-level GraphQL errors.
type CheckoutError struct {
	Message string
	// UserError is true when the message came from the cart mutation's userErrors.
	UserError bool
}

func (e *CheckoutError) Error() string {
	return e.Message
}
