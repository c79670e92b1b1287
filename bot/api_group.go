package bot

import (
	"context"
	"time"

	"github.com/nicebartender/runbot/event"
)

// SetGroupBan mutes user for d, rounded down to whole seconds. A zero d
// lifts the ban.
func (b *Bot) SetGroupBan(ctx context.Context, group, user event.ID, d time.Duration) error {
	return b.call(ctx, "set_group_ban", map[string]any{
		"group_id": group,
		"user_id":  user,
		"duration": int64(d / time.Second),
	}, nil)
}

func (b *Bot) SetGroupWholeBan(ctx context.Context, group event.ID, enable bool) error {
	return b.call(ctx, "set_group_whole_ban", map[string]any{
		"group_id": group,
		"enable":   enable,
	}, nil)
}

func (b *Bot) SetGroupKick(ctx context.Context, group, user event.ID, rejectAddRequest bool) error {
	return b.call(ctx, "set_group_kick", map[string]any{
		"group_id":           group,
		"user_id":            user,
		"reject_add_request": rejectAddRequest,
	}, nil)
}

func (b *Bot) SetGroupCard(ctx context.Context, group, user event.ID, card string) error {
	return b.call(ctx, "set_group_card", map[string]any{
		"group_id": group,
		"user_id":  user,
		"card":     card,
	}, nil)
}

type MemberInfo struct {
	GroupID  event.ID `json:"group_id"`
	UserID   event.ID `json:"user_id"`
	Nickname string   `json:"nickname"`
	Card     string   `json:"card"`
	Role     string   `json:"role"`
	Title    string   `json:"title"`
	JoinTime int64    `json:"join_time"`
	LastSent int64    `json:"last_sent_time"`
}

func (b *Bot) GetGroupMemberInfo(ctx context.Context, group, user event.ID, noCache bool) (*MemberInfo, error) {
	var out MemberInfo
	err := b.call(ctx, "get_group_member_info", map[string]any{
		"group_id": group,
		"user_id":  user,
		"no_cache": noCache,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
