package cart

// Notifier receives the user-facing side effects of cart operations: toast
// messages and the request to show the cart panel.
type Notifier interface {
	Success(message string)
	Error(message string)
	OpenCart()
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
func (NopNotifier) OpenCart()      {}
