package consult

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/pkg/logging"
)

var (
	ErrNotOwner = errors.New("consultation belongs to another patient")
	ErrNoFiles  = errors.New("at least one file is required")
)

// Service manages consultation photo packets. Object storage stays behind the
// Presigner; the service never moves file bytes itself.
type Service struct {
	repo      Repository
	presigner Presigner
	logger    *logging.Logger
}

func NewService(repo Repository, presigner Presigner, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, presigner: presigner, logger: logger}
}

// Create opens a new packet for the calling patient.
func (s *Service) Create(ctx context.Context, actor identity.Identity) (*Consultation, error) {
	c, err := s.repo.CreateConsultation(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}
	return c, nil
}

// RequestUploadURLs returns one presigned PUT per file.
func (s *Service) RequestUploadURLs(ctx context.Context, actor identity.Identity, consultationID uuid.UUID, files []FileSpec) ([]UploadTask, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if err := s.verifyOwner(ctx, actor, consultationID); err != nil {
		return nil, err
	}

	tasks := make([]UploadTask, 0, len(files))
	for _, f := range files {
		ext := "jpg"
		if i := strings.LastIndex(f.Filename, "."); i >= 0 && i < len(f.Filename)-1 {
			ext = f.Filename[i+1:]
		}
		key := fmt.Sprintf("patients/%s/%s/%s-%s.%s", actor.UserID, consultationID, f.AngleTag, uuid.NewString(), ext)

		presigned, public, err := s.presigner.PresignUpload(ctx, key, f.ContentType)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, UploadTask{
			AngleTag:     f.AngleTag,
			PresignedURL: presigned,
			FinalURL:     public,
		})
	}

	s.logger.Info("upload urls issued", "consultation_id", consultationID, "count", len(tasks))
	return tasks, nil
}

// ConfirmUpload records finished uploads and moves the packet to review.
func (s *Service) ConfirmUpload(ctx context.Context, actor identity.Identity, consultationID uuid.UUID, photos []PhotoSpec) (*Consultation, error) {
	if len(photos) == 0 {
		return nil, ErrNoFiles
	}
	if err := s.verifyOwner(ctx, actor, consultationID); err != nil {
		return nil, err
	}

	if err := s.repo.InsertPhotos(ctx, consultationID, photos); err != nil {
		return nil, fmt.Errorf("insert photos: %w", err)
	}

	c, err := s.repo.UpdateConsultationStatus(ctx, consultationID, StatusPendingReview)
	if err != nil {
		return nil, fmt.Errorf("update consultation status: %w", err)
	}

	s.logger.Info("consultation moved to review", "consultation_id", consultationID, "photos", len(photos))
	return c, nil
}

// ListForPatient returns the caller's packets, with each thumbnail re-signed
// into a short-lived read URL.
func (s *Service) ListForPatient(ctx context.Context, actor identity.Identity) ([]Consultation, error) {
	consultations, err := s.repo.ListConsultationsForPatient(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}

	for i := range consultations {
		for j := range consultations[i].Photos {
			signed, err := s.signRead(ctx, consultations[i].Photos[j].FileURL)
			if err != nil {
				// Leave the durable URL in place rather than dropping the row.
				s.logger.Warn("failed to sign read url", "error", err)
				continue
			}
			consultations[i].Photos[j].FileURL = signed
		}
	}

	return consultations, nil
}

func (s *Service) signRead(ctx context.Context, fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	return s.presigner.PresignRead(ctx, key)
}

// verifyOwner rejects access to another patient's packet. Staff bypass the
// ownership check.
func (s *Service) verifyOwner(ctx context.Context, actor identity.Identity, consultationID uuid.UUID) error {
	if actor.IsStaff() {
		return nil
	}

	c, err := s.repo.GetConsultationByID(ctx, consultationID)
	if err != nil {
		if errors.Is(err, ErrConsultationNotFound) {
			return err
		}
		return fmt.Errorf("load consultation: %w", err)
	}
	if c.PatientID != actor.UserID {
		return ErrNotOwner
	}
	return nil
}
