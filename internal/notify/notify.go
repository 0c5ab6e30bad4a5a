// Package notify is the contract between the client core and whatever toast
// UI hosts it. The core only ever calls Success and Error.
package notify

import "log"

// Notifier receives user-visible outcome messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to the process log. It is the default
// sink for headless use.
type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	log.Printf("[Toast] success: %s", message)
}

func (LogNotifier) Error(message string) {
	log.Printf("[Toast] error: %s", message)
}

// Discard drops every notification. Handy in tests that don't assert on
// toasts.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
