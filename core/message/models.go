package message

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kyalo/darasa/core"
)

type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"` // UTC
	CreatedAt   time.Time  `json:"created_at"`        // UTC
}

// Conversation summarizes the exchange with one peer for the contact list.
type Conversation struct {
	PeerID   string    `json:"peer_id"`
	PeerName string    `json:"peer_name"`
	LastBody string    `json:"last_body"`
	LastAt   time.Time `json:"last_at"` // UTC
	Unread   int       `json:"unread"`
}

// NewMessage contains information needed to send a Message.
type NewMessage struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
