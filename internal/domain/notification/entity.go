package notification

import (
	"time"
)

// Kind is the closed set of notification types carried on every channel.
type Kind string

const (
	KindCheckInPending    Kind = "checkin_pending"
	KindShiftConfirmed    Kind = "escala_confirmed"
	KindDocumentProcessed Kind = "document_processed"
	KindSystemAlert       Kind = "system_alert"
	KindMaintenance       Kind = "maintenance"
)

// AllKinds returns every kind in subscription order
func AllKinds() []Kind {
	return []Kind{
		KindCheckInPending,
		KindShiftConfirmed,
		KindDocumentProcessed,
		KindSystemAlert,
		KindMaintenance,
	}
}

func (k Kind) Valid() bool {
	switch k {
	case KindCheckInPending, KindShiftConfirmed, KindDocumentProcessed, KindSystemAlert, KindMaintenance:
		return true
	}
	return false
}

// Priority orders kinds for display, higher first.
func (k Kind) Priority() int {
	switch k {
	case KindSystemAlert, KindMaintenance:
		return 2
	case KindCheckInPending:
		return 1
	case KindShiftConfirmed, KindDocumentProcessed:
		return 0
	}
	return 0
}

// Event is one notification. ID is unique and is what listeners use to
// drop duplicates delivered by more than one channel.
type Event struct {
	ID          string
	Kind        Kind
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	CreatedAt   time.Time
}
