package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository contains the DB interactions needed by the service.
type Repository interface {
	InsertMessage(ctx context.Context, msg Message) (*Message, error)
	ListMessagesForChannel(ctx context.Context, channelOwnerID uuid.UUID) ([]Message, error)
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

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(
		&m.ID,
		&m.ChannelOwnerID,
		&m.SenderID,
		&m.Content,
		&m.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgRepository) InsertMessage(ctx context.Context, msg Message) (*Message, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, channel_owner_id, sender_id, content, timestamp)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, channel_owner_id, sender_id, content, timestamp
	`, id, msg.ChannelOwnerID, msg.SenderID, msg.Content)

	return scanMessage(row)
}

func (r *PgRepository) ListMessagesForChannel(ctx context.Context, channelOwnerID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_owner_id, sender_id, content, timestamp
		FROM chat_messages
		WHERE channel_owner_id = $1
		ORDER BY timestamp ASC
	`, channelOwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
