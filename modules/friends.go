package modules

import (
	"context"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/event"
)

// AutoApprove accepts every friend request. Group requests are left to the
// processors after it.
func AutoApprove() bot.Processor {
	return bot.OnRequest("friends.approve", func(ctx context.Context, b *bot.Bot, r *event.Request) (bool, error) {
		if r.RequestType != event.RequestFriend {
			return false, nil
		}
		b.Logger().Info("approving friend request", "user", r.UserID, "comment", r.Comment)
		return true, b.SetFriendAddRequest(ctx, r.Flag, true, "")
	})
}
