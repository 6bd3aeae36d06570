package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/messaging-api/internal/model"
)

// ListConversation returns the thread between a and b, oldest first.
// FLOOR keeps epoch at whole seconds; a bare ::BIGINT cast would round up.
func (db *DB) ListConversation(ctx context.Context, a, b int64) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, sender_user_id, receiver_user_id, message,
		        FLOOR(EXTRACT(EPOCH FROM created_at))::BIGINT
		 FROM messages
		 WHERE (sender_user_id = $1 AND receiver_user_id = $2)
		    OR (sender_user_id = $2 AND receiver_user_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		a, b,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Epoch); err != nil {
			return nil, fmt.Errorf("postgres: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating messages: %w", err)
	}
	return messages, nil
}

func (db *DB) ExistingUserIDs(ctx context.Context, ids ...int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM users WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: checking user ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scanning user id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating user ids: %w", err)
	}
	return found, nil
}

func (db *DB) Insert(ctx context.Context, msg *model.Message) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO messages (sender_user_id, receiver_user_id, message)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		msg.SenderID, msg.ReceiverID, msg.Body,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("postgres: inserting message: %w", err)
	}
	return nil
}
