package consult

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrConsultationNotFound = errors.New("consultation not found")

// Repository contains the DB interactions needed by the service.
type Repository interface {
	CreateConsultation(ctx context.Context, patientID uuid.UUID) (*Consultation, error)
	GetConsultationByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	InsertPhotos(ctx context.Context, consultationID uuid.UUID, photos []PhotoSpec) error
	UpdateConsultationStatus(ctx context.Context, id uuid.UUID, status Status) (*Consultation, error)

	// ListConsultationsForPatient returns the patient's packets newest first,
	// each carrying at most its earliest photo (the list thumbnail).
	ListConsultationsForPatient(ctx context.Context, patientID uuid.UUID) ([]Consultation, error)
}

// PgxPool is the slice of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool PgxPool
}

func NewPgRepository(pool PgxPool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID,
		&c.PatientID,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) CreateConsultation(ctx context.Context, patientID uuid.UUID) (*Consultation, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, status, created_at, updated_at)
		VALUES ($1, $2, 'pending_photos', now(), now())
		RETURNING id, patient_id, status, created_at, updated_at
	`, id, patientID)

	return scanConsultation(row)
}

func (r *PgRepository) GetConsultationByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, status, created_at, updated_at
		FROM consultations
		WHERE id = $1
	`, id)
	return scanConsultation(row)
}

func (r *PgRepository) InsertPhotos(ctx context.Context, consultationID uuid.UUID, photos []PhotoSpec) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range photos {
		_, err := tx.Exec(ctx, `
			INSERT INTO consultation_photos (id, consultation_id, file_url, angle_tag, uploaded_at)
			VALUES ($1, $2, $3, $4, now())
		`, uuid.New(), consultationID, p.FileURL, p.AngleTag)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateConsultationStatus(ctx context.Context, id uuid.UUID, status Status) (*Consultation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE consultations
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, status, created_at, updated_at
	`, id, status)

	return scanConsultation(row)
}

func (r *PgRepository) ListConsultationsForPatient(ctx context.Context, patientID uuid.UUID) ([]Consultation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.patient_id, c.status, c.created_at, c.updated_at,
		       p.id, p.file_url, p.angle_tag, p.uploaded_at
		FROM consultations c
		LEFT JOIN LATERAL (
			SELECT id, file_url, angle_tag, uploaded_at
			FROM consultation_photos
			WHERE consultation_id = c.id
			ORDER BY uploaded_at ASC
			LIMIT 1
		) p ON true
		WHERE c.patient_id = $1
		ORDER BY c.created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Consultation
	for rows.Next() {
		var c Consultation
		var photoID *uuid.UUID
		var fileURL, angleTag *string
		var uploadedAt *time.Time

		err := rows.Scan(
			&c.ID,
			&c.PatientID,
			&c.Status,
			&c.CreatedAt,
			&c.UpdatedAt,
			&photoID,
			&fileURL,
			&angleTag,
			&uploadedAt,
		)
		if err != nil {
			return nil, err
		}

		if photoID != nil {
			photo := Photo{
				ID:             *photoID,
				ConsultationID: c.ID,
			}
			if fileURL != nil {
				photo.FileURL = *fileURL
			}
			if angleTag != nil {
				photo.AngleTag = *angleTag
			}
			if uploadedAt != nil {
				photo.UploadedAt = *uploadedAt
			}
			c.Photos = []Photo{photo}
		}

		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
