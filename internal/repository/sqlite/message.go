package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/messaging-api/internal/model"
)

// ListConversation returns every message between a and b, in either
// direction, oldest first.
//
// created_at has one-second resolution, so id breaks ties: two messages sent
// in the same second still come back in insertion order.
func (db *DB) ListConversation(ctx context.Context, a, b int64) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, sender_user_id, receiver_user_id, message,
		        CAST(strftime('%s', created_at) AS INTEGER)
		 FROM messages
		 WHERE (sender_user_id = ? AND receiver_user_id = ?)
		    OR (sender_user_id = ? AND receiver_user_id = ?)
		 ORDER BY created_at ASC, id ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Epoch); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return messages, nil
}

// ExistingUserIDs returns which of ids belong to a registered user.
func (db *DB) ExistingUserIDs(ctx context.Context, ids ...int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	// One "?" per id: "?, ?, ?". Values still go through the driver.
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM users WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking user ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user ids: %w", err)
	}

	return found, nil
}

// Insert stores a new message and fills in msg.ID. created_at is assigned
// by the database.
func (db *DB) Insert(ctx context.Context, msg *model.Message) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (sender_user_id, receiver_user_id, message)
		 VALUES (?, ?, ?)`,
		msg.SenderID,
		msg.ReceiverID,
		msg.Body,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new message id: %w", err)
	}
	msg.ID = id

	return nil
}
