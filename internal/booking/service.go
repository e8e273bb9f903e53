package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/internal/observability/metrics"
	redisclient "github.com/careport/clinic-booking/internal/redis"
	"github.com/careport/clinic-booking/pkg/logging"
)

const (
	EventSlotBooked    = "slot_booked"
	EventSlotConfirmed = "slot_confirmed"
)

var (
	ErrAlreadyBooked    = errors.New("patient already has an active booking")
	ErrSlotUnavailable  = errors.New("slot is unavailable or does not exist")
	ErrSlotReserved     = errors.New("reserved slot cannot be deleted")
	ErrNotApprovable    = errors.New("slot is not awaiting approval")
	ErrStaffOnly        = errors.New("operation requires the staff role")
	ErrBookingContended = errors.New("booking in progress for this patient, please retry")
	ErrInvalidDateTime  = errors.New("slot date must be a valid future timestamp")
)

// EventRecorder appends patient timeline entries. Recording is best effort:
// a failed append never fails the booking operation that triggered it.
type EventRecorder interface {
	RecordSlotEvent(ctx context.Context, patientID uuid.UUID, kind, title string, at time.Time) error
}

// Service drives the slot lifecycle: free -> booked -> confirmed.
//
// Exclusivity per slot rests on the repository's conditional updates. The
// Redis lock only serialises claims by the same patient, so the
// one-active-booking pre-check cannot race with itself.
type Service struct {
	repo    Repository
	locker  redisclient.Locker
	events  EventRecorder
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

func NewService(repo Repository, locker redisclient.Locker, events EventRecorder, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		locker:  locker,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

// ListAvailable returns free slots at or after now, soonest first.
func (s *Service) ListAvailable(ctx context.Context, now time.Time) ([]Slot, error) {
	slots, err := s.repo.ListFreeSlots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}
	return slots, nil
}

// Claim books a free slot for the calling patient.
func (s *Service) Claim(ctx context.Context, actor identity.Identity, slotID uuid.UUID) (*Slot, error) {
	var claimed *Slot

	err := s.locker.WithPatientLock(ctx, actor.UserID, func(lockCtx context.Context) error {
		// Inside the critical section re-check the one-active-booking rule
		active, err := s.repo.GetActiveSlotForPatient(lockCtx, actor.UserID)
		if err != nil && !errors.Is(err, ErrSlotNotFound) {
			return fmt.Errorf("check active booking: %w", err)
		}
		if active != nil {
			return ErrAlreadyBooked
		}

		slot, err := s.repo.ClaimSlot(lockCtx, slotID, actor.UserID)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("claim slot: %w", err)
		}

		claimed = slot
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = ErrBookingContended
		}
		s.metrics.ObserveClaim(claimOutcome(err))
		return nil, err
	}

	s.metrics.ObserveClaim("success")
	s.logger.Info("slot claimed", "slot_id", claimed.ID, "patient_id", actor.UserID)
	s.recordEvent(ctx, actor.UserID, EventSlotBooked, "Appointment requested", claimed.DateTime)

	return claimed, nil
}

// CreateSlot publishes a new free slot. Duplicate date_time values are
// permitted on purpose.
func (s *Service) CreateSlot(ctx context.Context, actor identity.Identity, dateTime time.Time) (*Slot, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	if dateTime.IsZero() {
		return nil, ErrInvalidDateTime
	}

	slot, err := s.repo.CreateSlot(ctx, dateTime.UTC())
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("slot created", "slot_id", slot.ID, "date_time", slot.DateTime)
	return slot, nil
}

// DeleteSlot removes a slot that is still free.
func (s *Service) DeleteSlot(ctx context.Context, actor identity.Identity, slotID uuid.UUID) error {
	if !actor.IsStaff() {
		return ErrStaffOnly
	}

	deleted, err := s.repo.DeleteFreeSlot(ctx, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if deleted {
		s.logger.Info("slot deleted", "slot_id", slotID)
		return nil
	}

	// Nothing matched: distinguish a missing slot from a reserved one.
	if _, err := s.repo.GetSlotByID(ctx, slotID); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("load slot: %w", err)
	}
	return ErrSlotReserved
}

// ListPendingApproval returns booked slots awaiting staff confirmation.
func (s *Service) ListPendingApproval(ctx context.Context, actor identity.Identity) ([]PendingSlot, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	pending, err := s.repo.ListPendingApproval(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending approval: %w", err)
	}
	return pending, nil
}

// Approve confirms a booked slot. Approving a slot that is free or already
// confirmed is a conflict, not a no-op, so double submissions surface to the
// operator.
func (s *Service) Approve(ctx context.Context, actor identity.Identity, slotID uuid.UUID) (*Slot, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	slot, err := s.repo.ConfirmSlot(ctx, slotID)
	if err == nil {
		s.metrics.ObserveApproval("success")
		s.logger.Info("slot confirmed", "slot_id", slot.ID)
		if slot.PatientID != nil {
			s.recordEvent(ctx, *slot.PatientID, EventSlotConfirmed, "Appointment confirmed", slot.DateTime)
		}
		return slot, nil
	}

	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("confirm slot: %w", err)
	}

	// No booked row matched: missing slot vs wrong state.
	if _, err := s.repo.GetSlotByID(ctx, slotID); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			s.metrics.ObserveApproval("not_found")
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	s.metrics.ObserveApproval("conflict")
	return nil, ErrNotApprovable
}

// PatientRoster lists patients with their latest booking, for the staff console.
func (s *Service) PatientRoster(ctx context.Context, actor identity.Identity) ([]PatientBooking, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	roster, err := s.repo.ListPatientBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patient bookings: %w", err)
	}
	return roster, nil
}

func (s *Service) recordEvent(ctx context.Context, patientID uuid.UUID, kind, title string, at time.Time) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordSlotEvent(ctx, patientID, kind, title, at); err != nil {
		s.logger.Warn("failed to record timeline event", "kind", kind, "patient_id", patientID, "error", err)
	}
}

func claimOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrBookingContended):
		return "contended"
	default:
		return "error"
	}
}
