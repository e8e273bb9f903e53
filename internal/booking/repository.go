package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
)

// Repository contains all DB interactions needed by the service.
//
// ClaimSlot, ConfirmSlot and DeleteFreeSlot are conditional writes: they only
// touch rows still in the expected status and report how many rows matched.
// That conditional guard, not any in-process locking, is what makes the slot
// state machine safe against concurrent transitions.
type Repository interface {
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListFreeSlots(ctx context.Context, from time.Time) ([]Slot, error)
	CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error)

	// GetActiveSlotForPatient returns the patient's booked or confirmed slot,
	// or ErrSlotNotFound when the patient holds none.
	GetActiveSlotForPatient(ctx context.Context, patientID uuid.UUID) (*Slot, error)

	// ClaimSlot sets status=booked and the owning patient, only if the slot is
	// still free. Returns ErrSlotNotFound when no free row matched.
	ClaimSlot(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error)

	// ConfirmSlot sets status=confirmed, only if the slot is currently booked.
	// Returns ErrSlotNotFound when no booked row matched.
	ConfirmSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error)

	// DeleteFreeSlot removes the slot only while free; reports whether a row
	// was deleted.
	DeleteFreeSlot(ctx context.Context, slotID uuid.UUID) (bool, error)

	ListPendingApproval(ctx context.Context) ([]PendingSlot, error)
	ListPatientBookings(ctx context.Context) ([]PatientBooking, error)
}
