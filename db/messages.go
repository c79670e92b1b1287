package db

import (
	"context"
	"time"
)

type Message struct {
	ID         int64     `json:"id"`
	SelfID     int64     `json:"selfId"`
	MessageID  int64     `json:"messageId"`
	ChatType   string    `json:"chatType"`
	ChatID     int64     `json:"chatId"`
	UserID     int64     `json:"userId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Outgoing   bool      `json:"outgoing"`
	CreatedAt  time.Time `json:"createdAt"`
}

// InsertMessage stores m and returns it with ID and CreatedAt filled in.
func (db *DB) InsertMessage(ctx context.Context, m Message) (*Message, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO messages (self_id, message_id, chat_type, chat_id, user_id, sender_name, content, outgoing, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.SelfID, m.MessageID, m.ChatType, m.ChatID, m.UserID, m.SenderName, m.Content, m.Outgoing, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages returns up to limit messages of one chat in chronological
// order, optionally only those older than before.
func (db *DB) GetMessages(ctx context.Context, chatType string, chatID int64, before *time.Time, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, self_id, message_id, chat_type, chat_id, user_id, sender_name, content, outgoing, created_at
		FROM messages WHERE chat_type = ? AND chat_id = ?`
	args := []any{chatType, chatID}
	if before != nil {
		query += ` AND created_at < ?`
		args = append(args, *before)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SelfID, &m.MessageID, &m.ChatType, &m.ChatID, &m.UserID, &m.SenderName, &m.Content, &m.Outgoing, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
