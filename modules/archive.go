package modules

import (
	"context"
	"time"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/db"
	"github.com/nicebartender/runbot/event"
)

// Archive stores every message the bot sees or sends. It never handles an
// event, so the processors after it always run.
type Archive struct {
	db *db.DB
}

func NewArchive(store *db.DB) *Archive { return &Archive{db: store} }

func (a *Archive) ID() string { return "archive" }

func (a *Archive) ProcessPost(ctx context.Context, b *bot.Bot, p event.Post) (bool, error) {
	m, ok := p.(*event.Message)
	if !ok {
		return false, nil
	}
	outgoing := m.Kind() == event.KindMessageSent
	chatType, chatID := chatOf(m)

	created := time.Now().UTC()
	if m.Time > 0 {
		created = time.Unix(m.Time, 0).UTC()
	}
	content := m.RawMessage
	if content == "" {
		content = m.Message.PlainText()
	}

	_, err := a.db.InsertMessage(ctx, db.Message{
		SelfID:     int64(m.SelfID),
		MessageID:  int64(m.MessageID),
		ChatType:   chatType,
		ChatID:     chatID,
		UserID:     int64(m.UserID),
		SenderName: m.Sender.DisplayName(),
		Content:    content,
		Outgoing:   outgoing,
		CreatedAt:  created,
	})
	if err != nil {
		b.Logger().Warn("archive message failed", "err", err, "message_id", m.MessageID)
		return false, nil
	}
	if outgoing {
		return false, nil
	}

	_, err = a.db.UpsertUser(ctx, db.User{
		ID:           int64(m.UserID),
		Nickname:     m.Sender.Nickname,
		Card:         m.Sender.Card,
		LastChatType: chatType,
		LastChatID:   chatID,
		LastMessage:  content,
		SeenAt:       created,
	})
	if err != nil {
		b.Logger().Warn("archive user failed", "err", err, "user_id", m.UserID)
	}
	return false, nil
}

// chatOf names the conversation a message belongs to.
func chatOf(m *event.Message) (string, int64) {
	if m.IsGroup() {
		return db.ChatGroup, int64(m.GroupID)
	}
	return db.ChatPrivate, int64(m.UserID)
}
