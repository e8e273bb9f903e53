package booking

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotFree      SlotStatus = "free"
	SlotBooked    SlotStatus = "booked"
	SlotConfirmed SlotStatus = "confirmed"
)

// Active reports whether a slot in this status counts against the
// one-active-booking-per-patient rule.
func (s SlotStatus) Active() bool {
	return s == SlotBooked || s == SlotConfirmed
}

// Slot is one bookable time unit published by staff.
//
// Lifecycle: free -> booked (Claim) -> confirmed (Approve). A free slot may be
// deleted; a booked slot never returns to free.
type Slot struct {
	ID        uuid.UUID
	DateTime  time.Time
	Status    SlotStatus
	PatientID *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingSlot is a booked slot joined with its patient's display identity,
// as shown on the staff approval screen.
type PendingSlot struct {
	Slot
	PatientEmail     string
	PatientFirstName *string
	PatientLastName  *string
}

// PatientBooking summarises a patient's latest booking for the staff roster.
type PatientBooking struct {
	PatientID        uuid.UUID
	PatientEmail     string
	PatientFirstName *string
	PatientLastName  *string
	SlotDateTime     *time.Time
	SlotStatus       *SlotStatus
}
