package consult

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPendingPhotos Status = "pending_photos"
	StatusPendingReview Status = "pending_review"
)

// Consultation is one photo packet a patient submits ahead of a visit.
type Consultation struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Photos    []Photo
}

type Photo struct {
	ID             uuid.UUID
	ConsultationID uuid.UUID
	FileURL        string
	AngleTag       string
	UploadedAt     time.Time
}

// FileSpec describes one file the client wants an upload URL for.
type FileSpec struct {
	Filename    string
	ContentType string
	AngleTag    string
}

// UploadTask pairs a presigned PUT URL with the durable URL the client must
// report back on confirm.
type UploadTask struct {
	AngleTag     string
	PresignedURL string
	FinalURL     string
}

// PhotoSpec is the client's record of a completed upload.
type PhotoSpec struct {
	FileURL  string
	AngleTag string
}
