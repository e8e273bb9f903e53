package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/booking"
	"github.com/careport/clinic-booking/internal/chat"
	"github.com/careport/clinic-booking/internal/consult"
	"github.com/careport/clinic-booking/internal/timeline"
)

// Auth

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      uuid.UUID `json:"userId"`
	Role        string `json:"role"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Slots

type CreateSlotRequest struct {
	DateTime time.Time `json:"dateTime"`
}

type BookSlotRequest struct {
	SlotID string `json:"slotId"`
}

type SlotResponse struct {
	ID        uuid.UUID  `json:"id"`
	DateTime  time.Time  `json:"dateTime"`
	Status    string     `json:"status"`
	PatientID *uuid.UUID `json:"patientId,omitempty"`
}

func slotResponse(s *booking.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DateTime:  s.DateTime,
		Status:    string(s.Status),
		PatientID: s.PatientID,
	}
}

type PendingSlotResponse struct {
	SlotResponse
	Patient PatientIdentity `json:"patient"`
}

type PatientIdentity struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

func pendingSlotResponse(p booking.PendingSlot) PendingSlotResponse {
	return PendingSlotResponse{
		SlotResponse: slotResponse(&p.Slot),
		Patient: PatientIdentity{
			Email:     p.PatientEmail,
			FirstName: p.PatientFirstName,
			LastName:  p.PatientLastName,
		},
	}
}

// Chat

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ChannelOwnerID uuid.UUID `json:"channelOwnerId"`
	SenderID       uuid.UUID `json:"senderId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func messageResponse(m chat.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ChannelOwnerID: m.ChannelOwnerID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}
}

type RosterEntryResponse struct {
	Patient      PatientIdentity `json:"patient"`
	PatientID    uuid.UUID       `json:"patientId"`
	SlotDateTime *time.Time      `json:"slotDateTime,omitempty"`
	SlotStatus   *string         `json:"slotStatus,omitempty"`
}

func rosterEntryResponse(b booking.PatientBooking) RosterEntryResponse {
	entry := RosterEntryResponse{
		Patient: PatientIdentity{
			Email:     b.PatientEmail,
			FirstName: b.PatientFirstName,
			LastName:  b.PatientLastName,
		},
		PatientID:    b.PatientID,
		SlotDateTime: b.SlotDateTime,
	}
	if b.SlotStatus != nil {
		status := string(*b.SlotStatus)
		entry.SlotStatus = &status
	}
	return entry
}

// Timeline

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	EventDate   time.Time `json:"eventDate"`
}

type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patientId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	EventDate   time.Time `json:"eventDate"`
}

func eventResponse(e timeline.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		PatientID:   e.PatientID,
		Title:       e.Title,
		Description: e.Description,
		Kind:        e.Kind,
		EventDate:   e.EventDate,
	}
}

// Consultations

type UploadURLsRequest struct {
	ConsultationID string            `json:"consultationId"`
	Files          []UploadFileInput `json:"files"`
}

type UploadFileInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	AngleTag    string `json:"angle_tag"`
}

type UploadTaskResponse struct {
	AngleTag     string `json:"angle_tag"`
	PresignedURL string `json:"preSignedUrl"`
	FinalURL     string `json:"finalUrl"`
}

type ConfirmUploadRequest struct {
	ConsultationID string             `json:"consultationId"`
	Photos         []ConfirmPhotoSpec `json:"photos"`
}

type ConfirmPhotoSpec struct {
	FileURL  string `json:"file_url"`
	AngleTag string `json:"angle_tag"`
}

type ConsultationResponse struct {
	ID        uuid.UUID       `json:"id"`
	PatientID uuid.UUID       `json:"patientId"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Photos    []PhotoResponse `json:"photos,omitempty"`
}

type PhotoResponse struct {
	ID       uuid.UUID `json:"id"`
	FileURL  string    `json:"fileUrl"`
	AngleTag string    `json:"angleTag"`
}

func consultationResponse(c consult.Consultation) ConsultationResponse {
	resp := ConsultationResponse{
		ID:        c.ID,
		PatientID: c.PatientID,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
	for _, p := range c.Photos {
		resp.Photos = append(resp.Photos, PhotoResponse{
			ID:       p.ID,
			FileURL:  p.FileURL,
			AngleTag: p.AngleTag,
		})
	}
	return resp
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
