// Package mail delivers storefront contact and booking messages.
//
// When no provider is configured the [Sender] falls back to [LogMailer],
// which writes the message to the log and reports the delivery as simulated.
package mail
