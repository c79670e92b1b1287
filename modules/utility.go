package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/command"
	"github.com/nicebartender/runbot/db"
	"github.com/nicebartender/runbot/event"
)

const (
	defaultHistory = 10
	maxHistory     = 50
)

// Utility is the general purpose module: echo, the recall notice and,
// when an archive is available, history and seen.
func Utility(store *db.DB) (*bot.Module, error) {
	echo, err := bot.NewCommand("utility.echo", Prefix+"echo {msg:e}", handleEcho)
	if err != nil {
		return nil, err
	}
	procs := []bot.Processor{echo, bot.OnNotice("utility.recall", handleRecall)}
	help := "echo <text>"

	if store != nil {
		u := &utility{db: store}
		history, err := bot.CommandOf("utility.history", Prefix+"history {n:n}?", u.history)
		if err != nil {
			return nil, err
		}
		seen, err := bot.CommandOf("utility.seen", Prefix+"seen {user:n}", u.seen)
		if err != nil {
			return nil, err
		}
		procs = append(procs, history, seen)
		help += ", history [n], seen @user"
	}
	return bot.NewModule("utility", "Utility", help, procs...), nil
}

func handleEcho(ctx context.Context, b *bot.Bot, m *event.Message, a command.Args) (bool, error) {
	_, err := b.Reply(ctx, m, event.Text(a.String("msg")))
	return true, err
}

// handleRecall tells a friend that the bot noticed the message they
// took back.
func handleRecall(ctx context.Context, b *bot.Bot, n *event.Notice) (bool, error) {
	if n.NoticeType != event.NoticeFriendRecall {
		return false, nil
	}
	_, err := b.SendPrivateMsg(ctx, n.UserID, event.Chain{event.Text(n.UserID.String() + " recalled a message")})
	return true, err
}

type utility struct {
	db *db.DB
}

type historyArgs struct {
	N *int
}

func (u *utility) history(ctx context.Context, b *bot.Bot, m *event.Message, a *historyArgs) (bool, error) {
	limit := defaultHistory
	if a.N != nil && *a.N > 0 {
		limit = min(*a.N, maxHistory)
	}
	chatType, chatID := chatOf(m)

	// The command itself is already archived; skip it.
	messages, err := u.db.GetMessages(ctx, chatType, chatID, nil, limit+1)
	if err != nil {
		return true, fmt.Errorf("history: %w", err)
	}
	if n := len(messages); n > 0 && messages[n-1].MessageID == int64(m.MessageID) {
		messages = messages[:n-1]
	} else if n > limit {
		messages = messages[n-limit:]
	}
	if len(messages) == 0 {
		_, err := b.Reply(ctx, m, event.Text("no history yet"))
		return true, err
	}

	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		name := msg.SenderName
		if name == "" {
			name = event.ID(msg.UserID).String()
		}
		fmt.Fprintf(&sb, "[%s] %s: %s", msg.CreatedAt.Local().Format("01-02 15:04"), name, msg.Content)
	}
	_, err = b.Reply(ctx, m, event.Text(sb.String()))
	return true, err
}

type seenArgs struct {
	User event.ID
}

func (u *utility) seen(ctx context.Context, b *bot.Bot, m *event.Message, a *seenArgs) (bool, error) {
	user, err := u.db.GetUser(ctx, int64(a.User))
	if err != nil {
		return true, fmt.Errorf("seen: %w", err)
	}
	if user == nil {
		_, err := b.Reply(ctx, m, event.Text("never seen "+a.User.String()))
		return true, err
	}

	name := user.Card
	if name == "" {
		name = user.Nickname
	}
	where := "a private chat"
	if user.LastChatType == db.ChatGroup {
		where = "group " + event.ID(user.LastChatID).String()
	}
	ago := time.Since(user.SeenAt).Round(time.Second)
	text := fmt.Sprintf("%s (%d) was last seen %s ago in %s saying: %s",
		name, user.ID, ago, where, user.LastMessage)
	_, err = b.Reply(ctx, m, event.Text(text))
	return true, err
}
