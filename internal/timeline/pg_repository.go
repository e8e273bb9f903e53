package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository contains the DB interactions needed by the service.
type Repository interface {
	InsertEvent(ctx context.Context, ev Event) (*Event, error)
	ListEventsForPatient(ctx context.Context, patientID uuid.UUID) ([]Event, error)
}

// PgxPool is the slice of pgxpool.Pool the repository needs.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool PgxPool
}

func NewPgRepository(pool PgxPool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.Title,
		&e.Description,
		&e.Kind,
		&e.EventDate,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev Event) (*Event, error) {
	id := uuid.New()

	eventDate := ev.EventDate
	if eventDate.IsZero() {
		eventDate = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO timeline_events (id, patient_id, title, description, kind, event_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, patient_id, title, description, kind, event_date, created_at
	`, id, ev.PatientID, ev.Title, ev.Description, ev.Kind, eventDate)

	return scanEvent(row)
}

func (r *PgRepository) ListEventsForPatient(ctx context.Context, patientID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, title, description, kind, event_date, created_at
		FROM timeline_events
		WHERE patient_id = $1
		ORDER BY event_date ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
