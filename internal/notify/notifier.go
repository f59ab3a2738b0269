// Package notify abstracts the real-time notification channel. The friend
// service only depends on the Notifier capability; delivery mechanics live
// behind it.
package notify

import "context"

// Notifier delivers an event to a single user's active sessions. Delivery is
// best-effort: callers must treat a returned error as a logging concern, never
// as a failure of the operation that triggered the notification.
type Notifier interface {
	Notify(ctx context.Context, userID, event string, payload any) error
}

// Nop discards every notification. Used when no broker is configured.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string, any) error { return nil }
