package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Event is one entry on a patient's care timeline. Entries come either from
// staff (instructions, milestones) or from the booking engine (slot booked,
// slot confirmed).
type Event struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Title       string
	Description string
	Kind        string
	EventDate   time.Time
	CreatedAt   time.Time
}

const (
	KindInfo = "info"
	KindTask = "task"
)
