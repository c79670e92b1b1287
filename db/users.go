package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Nickname     string    `json:"nickname"`
	Card         string    `json:"card"`
	LastChatType string    `json:"lastChatType"`
	LastChatID   int64     `json:"lastChatId"`
	LastMessage  string    `json:"lastMessage"`
	MessageCount int64     `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	SeenAt       time.Time `json:"seenAt"`
}

// UpsertUser records that u was just seen speaking. Empty names keep the
// stored ones; the message count grows by one.
func (db *DB) UpsertUser(ctx context.Context, u User) (*User, error) {
	now := u.SeenAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, nickname, card, last_chat_type, last_chat_id, last_message, message_count, created_at, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = CASE WHEN excluded.nickname != '' THEN excluded.nickname ELSE users.nickname END,
			card = CASE WHEN excluded.card != '' THEN excluded.card ELSE users.card END,
			last_chat_type = excluded.last_chat_type,
			last_chat_id = excluded.last_chat_id,
			last_message = excluded.last_message,
			message_count = users.message_count + 1,
			seen_at = excluded.seen_at
	`, u.ID, u.Nickname, u.Card, u.LastChatType, u.LastChatID, u.LastMessage, now, now)
	if err != nil {
		return nil, err
	}
	return db.GetUser(ctx, u.ID)
}

// GetUser returns nil, nil when the user has never been seen.
func (db *DB) GetUser(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	err := db.QueryRowContext(ctx, `
		SELECT id, nickname, card, last_chat_type, last_chat_id, last_message, message_count, created_at, seen_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Nickname, &u.Card, &u.LastChatType, &u.LastChatID, &u.LastMessage, &u.MessageCount, &u.CreatedAt, &u.SeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
