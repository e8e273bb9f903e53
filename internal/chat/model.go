package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is one append-only chat record. The channel it belongs to is the
// patient named by ChannelOwnerID; the sender may be that patient or staff.
// Messages are never updated or deleted.
type Message struct {
	ID             uuid.UUID
	ChannelOwnerID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Timestamp      time.Time
}
