package bot

import (
	"context"
	"time"

	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/event"
)

// DefaultTimeout bounds the wait of the typed API helpers below.
const DefaultTimeout = 10 * time.Second

// call sends action and decodes the response data into out, which may be nil.
func (b *Bot) call(ctx context.Context, action string, params map[string]any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	r, err := b.Send(ctx, action, params)
	if err != nil {
		return err
	}
	return r.Decode(ctx, DefaultTimeout, out)
}

type sentMessage struct {
	MessageID event.ID `json:"message_id"`
}

func (b *Bot) SendPrivateMsg(ctx context.Context, user event.ID, msg event.Chain) (event.ID, error) {
	var out sentMessage
	err := b.call(ctx, "send_private_msg", map[string]any{
		"user_id": user,
		"message": msg,
	}, &out)
	return out.MessageID, err
}

func (b *Bot) SendGroupMsg(ctx context.Context, group event.ID, msg event.Chain) (event.ID, error) {
	var out sentMessage
	err := b.call(ctx, "send_group_msg", map[string]any{
		"group_id": group,
		"message":  msg,
	}, &out)
	return out.MessageID, err
}

// SendMsg sends to a private chat or a group depending on messageType.
func (b *Bot) SendMsg(ctx context.Context, messageType string, target event.ID, msg event.Chain) (event.ID, error) {
	params := map[string]any{"message_type": messageType, "message": msg}
	switch messageType {
	case event.MessagePrivate:
		params["user_id"] = target
	case event.MessageGroup:
		params["group_id"] = target
	default:
		return 0, errs.Params("send_msg", "unknown message type %q", messageType)
	}
	var out sentMessage
	err := b.call(ctx, "send_msg", params, &out)
	return out.MessageID, err
}

// Reply answers m in the chat it came from.
func (b *Bot) Reply(ctx context.Context, m *event.Message, segs ...event.Segment) (event.ID, error) {
	if m.IsGroup() {
		return b.SendGroupMsg(ctx, m.GroupID, segs)
	}
	return b.SendPrivateMsg(ctx, m.UserID, segs)
}

func (b *Bot) DeleteMsg(ctx context.Context, message event.ID) error {
	return b.call(ctx, "delete_msg", map[string]any{"message_id": message}, nil)
}

type MessageInfo struct {
	Time        int64        `json:"time"`
	MessageType string       `json:"message_type"`
	MessageID   event.ID     `json:"message_id"`
	RealID      event.ID     `json:"real_id"`
	Sender      event.Sender `json:"sender"`
	Message     event.Chain  `json:"message"`
}

func (b *Bot) GetMsg(ctx context.Context, message event.ID) (*MessageInfo, error) {
	var out MessageInfo
	if err := b.call(ctx, "get_msg", map[string]any{"message_id": message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type LoginInfo struct {
	UserID   event.ID `json:"user_id"`
	Nickname string   `json:"nickname"`
}

func (b *Bot) GetLoginInfo(ctx context.Context) (*LoginInfo, error) {
	var out LoginInfo
	if err := b.call(ctx, "get_login_info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bot) SendLike(ctx context.Context, user event.ID, times int) error {
	if times <= 0 {
		times = 1
	}
	return b.call(ctx, "send_like", map[string]any{"user_id": user, "times": times}, nil)
}

func (b *Bot) SetFriendAddRequest(ctx context.Context, flag string, approve bool, remark string) error {
	return b.call(ctx, "set_friend_add_request", map[string]any{
		"flag":    flag,
		"approve": approve,
		"remark":  remark,
	}, nil)
}

// SetGroupAddRequest answers a group join request or invitation. subType
// is the sub_type of the request event.
func (b *Bot) SetGroupAddRequest(ctx context.Context, flag, subType string, approve bool, reason string) error {
	return b.call(ctx, "set_group_add_request", map[string]any{
		"flag":     flag,
		"sub_type": subType,
		"approve":  approve,
		"reason":   reason,
	}, nil)
}
