package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	msgCheckoutFailed = "Failed to create checkout"
	msgCheckoutRetry  = "Failed to create checkout. Please try again."
	msgCheckoutError  = "Checkout error"
)

// Inputs builds the cart-creation payload for the current lines.
func (s *Store) Inputs() []LineInput {
	s.Initialize()
	inputs := make([]LineInput, 0, len(s.lines))
	for _, l := range s.lines {
		inputs = append(inputs, LineInput{MerchandiseID: l.VariantID, Quantity: l.Quantity})
	}
	return inputs
}

// Checkout submits the cart to the CartCreator and returns the checkout URL
// the client should navigate to. The cart is left untouched either way.
//
// Failures are checked in order: empty cart, transport failure, user errors,
// GraphQL errors, missing checkout URL. Each one raises an error notification
// before it is returned.
func (s *Store) Checkout(ctx context.Context) (string, error) {
	s.Initialize()
	if len(s.lines) == 0 {
		s.notifier.Error(ErrEmptyCart.Error())
		return "", ErrEmptyCart
	}
	if s.creator == nil {
		s.notifier.Error(msgCheckoutFailed)
		return "", fmt.Errorf("%w: no cart creator configured", ErrCheckoutFailed)
	}

	res, err := s.creator.CreateCart(ctx, s.Inputs())
	if err != nil {
		s.logger.Error("cart: cart creation failed", zap.Error(err))
		s.notifier.Error(msgCheckoutFailed)
		return "", fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	if res.CheckoutURL != "" {
		s.logger.Info("cart: redirecting to checkout", zap.String("checkout_url", res.CheckoutURL))
		return res.CheckoutURL, nil
	}

	if len(res.UserErrors) > 0 {
		return "", s.fail(&CheckoutError{Message: firstOr(res.UserErrors, msgCheckoutError), UserError: true})
	}
	if len(res.Errors) > 0 {
		return "", s.fail(&CheckoutError{Message: firstOr(res.Errors, msgCheckoutError)})
	}

	s.notifier.Error(msgCheckoutRetry)
	return "", fmt.Errorf("%w: no checkout url returned", ErrCheckoutFailed)
}

func (s *Store) fail(err *CheckoutError) error {
	s.logger.Warn("cart: checkout rejected upstream", zap.String("message", err.Message), zap.Bool("user_error", err.UserError))
	s.notifier.Error(fmt.Sprintf("%s: %s", msgCheckoutError, err.Message))
	return err
}

func firstOr(messages []string, fallback string) string {
	if len(messages) == 0 || messages[0] == "" {
		return fallback
	}
	return messages[0]
}

// IsCheckoutError reports whether err carries an upstream checkout message.
func IsCheckoutError(err error) (*CheckoutError, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
