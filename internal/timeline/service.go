package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/identity"
)

var (
	ErrStaffOnly    = errors.New("operation requires the staff role")
	ErrInvalidEvent = errors.New("event title is required")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForPatient returns a patient's timeline ascending by event date.
// Patients always read their own timeline regardless of the requested id.
func (s *Service) ListForPatient(ctx context.Context, actor identity.Identity, patientID uuid.UUID) ([]Event, error) {
	if !actor.IsStaff() {
		patientID = actor.UserID
	}

	events, err := s.repo.ListEventsForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	return events, nil
}

// Create appends a staff-authored event to a patient's timeline.
func (s *Service) Create(ctx context.Context, actor identity.Identity, patientID uuid.UUID, title, description, kind string, eventDate time.Time) (*Event, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidEvent
	}
	if kind == "" {
		kind = KindInfo
	}

	ev, err := s.repo.InsertEvent(ctx, Event{
		PatientID:   patientID,
		Title:       title,
		Description: description,
		Kind:        kind,
		EventDate:   eventDate,
	})
	if err != nil {
		return nil, fmt.Errorf("insert timeline event: %w", err)
	}
	return ev, nil
}

// RecordSlotEvent satisfies the booking engine's EventRecorder. Booking events
// carry the slot time as the event date.
func (s *Service) RecordSlotEvent(ctx context.Context, patientID uuid.UUID, kind, title string, at time.Time) error {
	_, err := s.repo.InsertEvent(ctx, Event{
		PatientID: patientID,
		Title:     title,
		Kind:      kind,
		EventDate: at,
	})
	return err
}
