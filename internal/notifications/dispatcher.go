package notifications

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventNotificationCreated is the websocket event type for a new notification.
const EventNotificationCreated = "notification_created"

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Dispatcher pushes events to a user's websocket connections. With Redis it
// publishes to the user channel and every instance's hub forwards it;
// without Redis it delivers to the local hub directly.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

// NewDispatcher wires a dispatcher. Either argument may be nil.
func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

// Deliver sends {type, payload} to userID.
func (d *Dispatcher) Deliver(ctx context.Context, userID uint, eventType string, payload any) error {
	msg, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	if d.notifier.Enabled() {
		return d.notifier.PublishUser(ctx, userID, string(msg))
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, string(msg))
	}
	return nil
}
