package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the slice of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool PgxPool
}

func NewPgRepository(pool PgxPool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var patientID *uuid.UUID

	err := row.Scan(
		&s.ID,
		&s.DateTime,
		&s.Status,
		&patientID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.PatientID = patientID
	return &s, nil
}

// Interface methods

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, date_time, status, patient_id, created_at, updated_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListFreeSlots(ctx context.Context, from time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date_time, status, patient_id, created_at, updated_at
		FROM slots
		WHERE status = 'free'
		  AND date_time >= $1
		ORDER BY date_time ASC
	`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateSlot(ctx context.Context, dateTime time.Time) (*Slot, error) {
	id := uuid.New()

	// No uniqueness on date_time: duplicate slots at the same time are allowed.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, date_time, status, patient_id, created_at, updated_at)
		VALUES ($1, $2, 'free', NULL, now(), now())
		RETURNING id, date_time, status, patient_id, created_at, updated_at
	`, id, dateTime)

	return scanSlot(row)
}

func (r *PgRepository) GetActiveSlotForPatient(ctx context.Context, patientID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, date_time, status, patient_id, created_at, updated_at
		FROM slots
		WHERE patient_id = $1
		  AND status IN ('booked', 'confirmed')
		LIMIT 1
	`, patientID)
	return scanSlot(row)
}

func (r *PgRepository) ClaimSlot(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = 'booked',
		    patient_id = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'free'
		RETURNING id, date_time, status, patient_id, created_at, updated_at
	`, slotID, patientID)

	return scanSlot(row)
}

func (r *PgRepository) ConfirmSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = 'confirmed',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'booked'
		RETURNING id, date_time, status, patient_id, created_at, updated_at
	`, slotID)

	return scanSlot(row)
}

func (r *PgRepository) DeleteFreeSlot(ctx context.Context, slotID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM slots
		WHERE id = $1
		  AND status = 'free'
	`, slotID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListPendingApproval(ctx context.Context) ([]PendingSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.date_time, s.status, s.patient_id, s.created_at, s.updated_at,
		       u.email, u.first_name, u.last_name
		FROM slots s
		JOIN users u ON u.id = s.patient_id
		WHERE s.status = 'booked'
		ORDER BY s.date_time ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingSlot
	for rows.Next() {
		var p PendingSlot
		var patientID *uuid.UUID

		err := rows.Scan(
			&p.ID,
			&p.DateTime,
			&p.Status,
			&patientID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PatientEmail,
			&p.PatientFirstName,
			&p.PatientLastName,
		)
		if err != nil {
			return nil, err
		}

		p.PatientID = patientID
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListPatientBookings(ctx context.Context) ([]PatientBooking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, s.date_time, s.status
		FROM users u
		LEFT JOIN slots s
		  ON s.patient_id = u.id
		 AND s.status IN ('booked', 'confirmed')
		WHERE u.role = 'patient'
		ORDER BY u.email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PatientBooking
	for rows.Next() {
		var b PatientBooking

		err := rows.Scan(
			&b.PatientID,
			&b.PatientEmail,
			&b.PatientFirstName,
			&b.PatientLastName,
			&b.SlotDateTime,
			&b.SlotStatus,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
