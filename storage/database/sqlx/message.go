package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/message"
)

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	ID          string       `db:"id"`
	SenderID    string       `db:"sender_id"`
	RecipientID string       `db:"recipient_id"`
	Body        string       `db:"body"`
	ReadAt      sql.NullTime `db:"read_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

func (r messageRow) toMessage() message.Message {
	msg := message.Message{
		ID:          r.ID,
		SenderID:    r.SenderID,
		RecipientID: r.RecipientID,
		Body:        r.Body,
		CreatedAt:   r.CreatedAt,
	}
	if r.ReadAt.Valid {
		t := r.ReadAt.Time
		msg.ReadAt = &t
	}
	return msg
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO message (id, sender_id, recipient_id, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryThread(ctx context.Context, userID, peerID string, ordering ...core.DBOrdering) ([]message.Message, error) {
	q := `SELECT id, sender_id, recipient_id, body, read_at, created_at
	      FROM message
	      WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)` +
		orderBy(ordering, "created_at ASC")

	var rows []messageRow
	if err := repo.db.SelectContext(ctx, &rows, q, userID, peerID); err != nil {
		return nil, errors.Wrap(err, "querying thread")
	}
	msgs := make([]message.Message, len(rows))
	for i, row := range rows {
		msgs[i] = row.toMessage()
	}
	return msgs, nil
}

func (repo *messageRepository) MarkThreadRead(ctx context.Context, userID, peerID string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE message SET read_at = $1 WHERE recipient_id = $2 AND sender_id = $3 AND read_at IS NULL`,
		time.Now().UTC(), userID, peerID,
	)
	return errors.Wrap(err, "marking thread read")
}

func (repo *messageRepository) QueryConversations(ctx context.Context, userID string) ([]message.Conversation, error) {
	// one row per peer: latest message + count of unread messages they sent
	q := `
	SELECT * FROM (
	SELECT DISTINCT ON (peer_id)
	       CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS peer_id,
	       u.name AS peer_name,
	       m.body AS last_body,
	       m.created_at AS last_at,
	       (SELECT COUNT(*) FROM message
	        WHERE recipient_id = $1
	          AND sender_id = CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END
	          AND read_at IS NULL) AS unread
	FROM message m
	JOIN "user" u ON u.id = CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END
	WHERE m.sender_id = $1 OR m.recipient_id = $1
	ORDER BY peer_id, m.created_at DESC
	) conv ORDER BY last_at DESC`

	var rows []struct {
		PeerID   string    `db:"peer_id"`
		PeerName string    `db:"peer_name"`
		LastBody string    `db:"last_body"`
		LastAt   time.Time `db:"last_at"`
		Unread   int       `db:"unread"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}

	convs := make([]message.Conversation, len(rows))
	for i, row := range rows {
		convs[i] = message.Conversation(row)
	}
	return convs, nil
}
