package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/event"
)

type banArgs struct {
	Time  int64
	Unit  *string
	Users []event.ID `arg:"user"`
}

// maxBan is the longest mute OneBot implementations accept.
const maxBan = 30 * 24 * time.Hour

// duration applies the unit suffix; a bare number is seconds. It reports
// false when the result is not within 1s to maxBan.
func (a *banArgs) duration() (time.Duration, bool) {
	secs := int64(1)
	if a.Unit != nil {
		switch *a.Unit {
		case "m":
			secs = 60
		case "h":
			secs = 3600
		}
	}
	if a.Time <= 0 || a.Time > int64(maxBan/time.Second)/secs {
		return 0, false
	}
	return time.Duration(a.Time*secs) * time.Second, true
}

type kickArgs struct {
	Users []event.ID `arg:"user"`
}

// Admin is the group moderation module. Its commands only work in groups
// and only for owners and admins.
func Admin() (*bot.Module, error) {
	ban, err := bot.CommandOf("admin.ban", Prefix+"ban {time:n}[unit:s|m|h]? {user:n}+", handleBan)
	if err != nil {
		return nil, err
	}
	unban, err := bot.CommandOf("admin.unban", Prefix+"unban {user:n}+", handleUnban)
	if err != nil {
		return nil, err
	}
	kick, err := bot.CommandOf("admin.kick", Prefix+"kick {user:n}+", handleKick)
	if err != nil {
		return nil, err
	}
	return bot.NewModule("admin", "Admin",
		"ban <n>[s|m|h] @user..., unban @user..., kick @user...", ban, unban, kick), nil
}

// allowed replies with the reason and returns false when m may not use an
// admin command.
func allowed(ctx context.Context, b *bot.Bot, m *event.Message) (bool, error) {
	if !m.IsGroup() {
		_, err := b.Reply(ctx, m, event.Text("this command only works in groups"))
		return false, err
	}
	if !m.Sender.IsAdmin() {
		_, err := b.Reply(ctx, m, event.Text("only group owners and admins can do that"))
		return false, err
	}
	return true, nil
}

func handleBan(ctx context.Context, b *bot.Bot, m *event.Message, a *banArgs) (bool, error) {
	if ok, err := allowed(ctx, b, m); !ok {
		return true, err
	}
	d, ok := a.duration()
	if !ok {
		_, err := b.Reply(ctx, m, event.Text(fmt.Sprintf("ban length must be between 1s and %s", maxBan)))
		return true, err
	}
	users := others(b, a.Users)
	if len(users) == 0 {
		_, err := b.Reply(ctx, m, event.Text("I can't ban myself"))
		return true, err
	}
	for _, user := range users {
		if err := b.SetGroupBan(ctx, m.GroupID, user, d); err != nil {
			return true, fmt.Errorf("ban %d: %w", user, err)
		}
	}
	b.Logger().Info("banned users", "group", m.GroupID, "users", users, "duration", d, "by", m.UserID)
	_, err := b.Reply(ctx, m, event.Text(fmt.Sprintf("banned %s for %s", joinIDs(users), d)))
	return true, err
}

func handleUnban(ctx context.Context, b *bot.Bot, m *event.Message, a *kickArgs) (bool, error) {
	if ok, err := allowed(ctx, b, m); !ok {
		return true, err
	}
	for _, user := range a.Users {
		if err := b.SetGroupBan(ctx, m.GroupID, user, 0); err != nil {
			return true, fmt.Errorf("unban %d: %w", user, err)
		}
	}
	_, err := b.Reply(ctx, m, event.Text("unbanned "+joinIDs(a.Users)))
	return true, err
}

func handleKick(ctx context.Context, b *bot.Bot, m *event.Message, a *kickArgs) (bool, error) {
	if ok, err := allowed(ctx, b, m); !ok {
		return true, err
	}
	users := others(b, a.Users)
	if len(users) == 0 {
		_, err := b.Reply(ctx, m, event.Text("I can't kick myself"))
		return true, err
	}
	for _, user := range users {
		if err := b.SetGroupKick(ctx, m.GroupID, user, false); err != nil {
			return true, fmt.Errorf("kick %d: %w", user, err)
		}
	}
	b.Logger().Info("kicked users", "group", m.GroupID, "users", users, "by", m.UserID)
	_, err := b.Reply(ctx, m, event.Text("kicked "+joinIDs(users)))
	return true, err
}

// others drops the bot's own account from users.
func others(b *bot.Bot, users []event.ID) []event.ID {
	out := make([]event.ID, 0, len(users))
	for _, user := range users {
		if user != b.SelfID() {
			out = append(out, user)
		}
	}
	return out
}

func joinIDs(ids []event.ID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ", ")
}
