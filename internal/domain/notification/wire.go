package notification

import (
	"time"
)

// Frame types exchanged with the notification server.
const (
	FrameNotification          = "notification"
	FrameConnection            = "connection"
	FrameSubscribe             = "subscribe"
	FrameSubscriptionConfirmed = "subscription_confirmed"
	FramePing                  = "ping"
	FramePong                  = "pong"
)

// Frame is the JSON envelope used on the websocket and broker channels.
type Frame struct {
	Type              string            `json:"type"`
	Notification      *WireNotification `json:"notification,omitempty"`
	NotificationTypes []Kind            `json:"notification_types,omitempty"`
	Timestamp         *time.Time        `json:"timestamp,omitempty"`
}

type WireNotification struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"tipo"`
	RecipientID string                 `json:"usuario_id,omitempty"`
	Title       string                 `json:"titulo"`
	Message     string                 `json:"mensagem"`
	Priority    string                 `json:"prioridade,omitempty"`
	Data        map[string]interface{} `json:"dados_adicional,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

var priorityNames = map[int]string{0: "baixa", 1: "media", 2: "alta"}

func ToWire(e Event) WireNotification {
	return WireNotification{
		ID:          e.ID,
		Kind:        e.Kind,
		RecipientID: e.RecipientID,
		Title:       e.Title,
		Message:     e.Message,
		Priority:    priorityNames[e.Kind.Priority()],
		Data:        e.Data,
		CreatedAt:   e.CreatedAt,
	}
}

func (w WireNotification) Event() Event {
	return Event{
		ID:          w.ID,
		Kind:        w.Kind,
		RecipientID: w.RecipientID,
		Title:       w.Title,
		Message:     w.Message,
		Data:        w.Data,
		CreatedAt:   w.CreatedAt,
	}
}

// SubscribeFrame asks the server for the given kinds.
func SubscribeFrame(kinds []Kind) Frame {
	return Frame{Type: FrameSubscribe, NotificationTypes: kinds}
}
