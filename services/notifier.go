package services

import (
	"context"

	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/utils"
)

// Broadcaster is satisfied by *hub.Hub.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// Notifier fans session events out to the webhook, the floor screens and the broker.
// Every sink is optional, and so is the Notifier itself.
type Notifier struct {
	Webhook   *WebhookService
	Hub       Broadcaster
	Publisher *EventPublisher
}

func NewNotifier(webhook *WebhookService, b Broadcaster, publisher *EventPublisher) *Notifier {
	return &Notifier{Webhook: webhook, Hub: b, Publisher: publisher}
}

func newSessionEvent(session models.Session, device models.Device) SessionEvent {
	event := SessionEvent{
		DeviceType:   device.Type,
		DeviceNumber: device.CounterNumber,
		Status:       session.Status,
		SessionID:    session.ID,
		PlayerCount:  session.PlayerCount,
		Timestamp:    session.StartTime,
	}
	if session.EndTime != nil {
		event.Timestamp = *session.EndTime
	}
	return event
}

// SessionChanged is called after a session opened or closed. It never fails;
// only the webhook outcome is reported.
func (n *Notifier) SessionChanged(ctx context.Context, session models.Session, device models.Device) NotificationResult {
	if n == nil {
		return NotificationResult{Status: models.DeliveryStatusSkipped}
	}
	event := newSessionEvent(session, device)

	hubEvent := hub.EventSessionStarted
	if session.Status == models.SessionStatusEnded {
		hubEvent = hub.EventSessionEnded
	}
	n.fanOut(ctx, hubEvent, event, "session_id", session.ID)

	if n.Webhook == nil {
		return NotificationResult{Status: models.DeliveryStatusSkipped}
	}
	return n.Webhook.Send(ctx, event)
}

// SessionUpdated covers in-flight edits (player count). No webhook is sent.
func (n *Notifier) SessionUpdated(ctx context.Context, session models.Session, device models.Device) {
	if n == nil {
		return
	}
	n.fanOut(ctx, hub.EventSessionUpdated, newSessionEvent(session, device), "session_id", session.ID)
}

// BillChanged tells the floor screens and the broker about a bill.
func (n *Notifier) BillChanged(ctx context.Context, bill models.Bill) {
	if n == nil {
		return
	}
	n.fanOut(ctx, hub.EventBillUpdate, bill, "bill_id", bill.ID)
}

// OrderChanged tells the floor screens and the broker about an order.
func (n *Notifier) OrderChanged(ctx context.Context, order models.Order) {
	if n == nil {
		return
	}
	n.fanOut(ctx, hub.EventOrderUpdate, order, "order_id", order.ID)
}

func (n *Notifier) fanOut(ctx context.Context, event string, data interface{}, idField string, id uint) {
	if n.Hub != nil {
		n.Hub.Broadcast(event, data)
	}
	if n.Publisher != nil {
		if err := n.Publisher.Publish(ctx, event, data); err != nil {
			utils.ErrorLogger.WithError(err).WithField(idField, id).Warn("event not queued")
		}
	}
}
