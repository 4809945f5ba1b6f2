package notification

import (
	"time"
)

// CreateRequest describes a notification to deliver to one recipient.
type CreateRequest struct {
	Kind        Kind
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
}

func (r CreateRequest) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if r.RecipientID == "" {
		return ErrMissingRecipient
	}
	return nil
}

type Response struct {
	ID        string                 `json:"id"`
	Type      Kind                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewResponse(e Event) Response {
	return Response{
		ID:        e.ID,
		Type:      e.Kind,
		Title:     e.Title,
		Message:   e.Message,
		Data:      e.Data,
		IsRead:    e.IsRead,
		CreatedAt: e.CreatedAt,
	}
}

type ListResponse struct {
	Notifications []Response `json:"notifications"`
	Total         int        `json:"total"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
