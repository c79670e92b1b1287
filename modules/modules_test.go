package modules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/db"
)

func TestBanByAdmin(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "admin", `[{"type":"text","data":{"text":"-ban 10m "}},{"type":"at","data":{"qq":"7"}}]`))

	req := p.request(t)
	assert.Equal(t, "set_group_ban", req.Get("action").String())
	assert.Equal(t, int64(100), req.Get("params.group_id").Int())
	assert.Equal(t, int64(7), req.Get("params.user_id").Int())
	assert.Equal(t, int64(600), req.Get("params.duration").Int())

	req = p.request(t)
	assert.Equal(t, "send_group_msg", req.Get("action").String())
	assert.Equal(t, "banned 7 for 10m0s", req.Get("params.message.0.data.text").String())
}

func TestBanDefaultsToSeconds(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "owner", text("/ban 30 7 8")))

	for _, user := range []int64{7, 8} {
		req := p.request(t)
		assert.Equal(t, "set_group_ban", req.Get("action").String())
		assert.Equal(t, user, req.Get("params.user_id").Int())
		assert.Equal(t, int64(30), req.Get("params.duration").Int())
	}
	assert.Equal(t, "send_group_msg", p.request(t).Get("action").String())
}

func TestBanLengthIsBounded(t *testing.T) {
	p := run(t, Config{})
	for _, cmd := range []string{"-ban 3000000h 7", "-ban 721h 7", "-ban 0 7"} {
		p.send(groupMsg(1, 5, "admin", text(cmd)))
		req := p.request(t)
		assert.Equal(t, "send_group_msg", req.Get("action").String(), cmd)
		assert.Equal(t, "ban length must be between 1s and 720h0m0s", req.Get("params.message.0.data.text").String(), cmd)
		p.quiet(t)
	}

	p.send(groupMsg(1, 5, "admin", text("-ban 720h 7")))
	req := p.request(t)
	assert.Equal(t, "set_group_ban", req.Get("action").String())
	assert.Equal(t, int64(30*24*3600), req.Get("params.duration").Int())
}

func TestAdminSkipsOwnAccount(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "admin", text("-ban 30 1 7")))

	req := p.request(t)
	assert.Equal(t, "set_group_ban", req.Get("action").String())
	assert.Equal(t, int64(7), req.Get("params.user_id").Int())
	assert.Equal(t, "banned 7 for 30s", p.request(t).Get("params.message.0.data.text").String())
	p.quiet(t)

	p.send(groupMsg(2, 5, "admin", text("-ban 30 1")))
	req = p.request(t)
	assert.Equal(t, "send_group_msg", req.Get("action").String())
	assert.Equal(t, "I can't ban myself", req.Get("params.message.0.data.text").String())
	p.quiet(t)
}

func TestAdminCommandsNeedPermission(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "member", text("-kick 7")))

	req := p.request(t)
	assert.Equal(t, "send_group_msg", req.Get("action").String())
	assert.Contains(t, req.Get("params.message.0.data.text").String(), "owners and admins")
	p.quiet(t)

	p.send(`{"post_type":"message","message_type":"private","user_id":5,"message":"-unban 7"}`)
	req = p.request(t)
	assert.Equal(t, "send_private_msg", req.Get("action").String())
	assert.Contains(t, req.Get("params.message.0.data.text").String(), "only works in groups")
	p.quiet(t)
}

func TestKick(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "admin", text("~kick 7")))

	req := p.request(t)
	assert.Equal(t, "set_group_kick", req.Get("action").String())
	assert.Equal(t, int64(7), req.Get("params.user_id").Int())
	assert.False(t, req.Get("params.reject_add_request").Bool())
	assert.Equal(t, "kicked 7", p.request(t).Get("params.message.0.data.text").String())
}

func TestEcho(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "member", text("-echo hello   world")))

	req := p.request(t)
	assert.Equal(t, "send_group_msg", req.Get("action").String())
	assert.Equal(t, "hello   world", req.Get("params.message.0.data.text").String())
}

func TestHelpListsModules(t *testing.T) {
	p := run(t, Config{Archive: openArchive(t)})
	p.send(groupMsg(1, 5, "member", text("/help")))

	got := p.request(t).Get("params.message.0.data.text").String()
	assert.Contains(t, got, "Admin: ban")
	assert.Contains(t, got, "Utility: echo <text>, history [n], seen @user")
}

func TestHelpText(t *testing.T) {
	assert.Equal(t, "no modules installed", helpText(nil))
	got := helpText([]*bot.Module{bot.NewModule("a", "A", ""), bot.NewModule("b", "B", "does b")})
	assert.Equal(t, "modules:\nA\nB: does b", got)
}

func TestUnknownTextIsIgnored(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "admin", text("hello there")))
	p.send(groupMsg(2, 5, "admin", text("-ban soon 7")))
	p.quiet(t)
}

// waitArchived blocks until n messages of group 100 are stored.
func waitArchived(t *testing.T, store *db.DB, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		msgs, err := store.GetMessages(context.Background(), db.ChatGroup, 100, nil, 100)
		return err == nil && len(msgs) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestArchiveAndHistory(t *testing.T) {
	store := openArchive(t)
	p := run(t, Config{Archive: store})

	for i, s := range []string{"first", "second", "third"} {
		p.send(groupMsg(i+1, 5, "member", text(s)))
		waitArchived(t, store, i+1)
	}

	u, err := store.GetUser(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(3), u.MessageCount)
	assert.Equal(t, "third", u.LastMessage)
	assert.Equal(t, "nick", u.Nickname)

	p.send(groupMsg(4, 5, "member", text("-history 2")))
	got := p.request(t).Get("params.message.0.data.text").String()
	assert.NotContains(t, got, "first")
	assert.Contains(t, got, "nick: second")
	assert.Contains(t, got, "nick: third")
	assert.NotContains(t, got, "history")
}

func TestArchiveRecordsOwnMessages(t *testing.T) {
	store := openArchive(t)
	p := run(t, Config{Archive: store})

	p.send(`{"post_type":"message_sent","message_type":"group","message_id":9,"group_id":100,"user_id":1,"self_id":1,"message":"sent by me"}`)
	waitArchived(t, store, 1)

	msgs, err := store.GetMessages(context.Background(), db.ChatGroup, 100, nil, 10)
	require.NoError(t, err)
	assert.True(t, msgs[0].Outgoing)
	assert.Equal(t, "sent by me", msgs[0].Content)

	u, err := store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSeen(t *testing.T) {
	store := openArchive(t)
	p := run(t, Config{Archive: store})

	p.send(groupMsg(1, 5, "member", text("anyone here?")))
	waitArchived(t, store, 1)

	p.send(groupMsg(2, 6, "member", `[{"type":"text","data":{"text":"-seen "}},{"type":"at","data":{"qq":"5"}}]`))
	got := p.request(t).Get("params.message.0.data.text").String()
	assert.Contains(t, got, "nick (5)")
	assert.Contains(t, got, "group 100")
	assert.Contains(t, got, "anyone here?")

	p.send(groupMsg(3, 6, "member", text("-seen 9")))
	assert.Equal(t, "never seen 9", p.request(t).Get("params.message.0.data.text").String())
}

func TestHistoryNeedsArchive(t *testing.T) {
	p := run(t, Config{})
	p.send(groupMsg(1, 5, "member", text("-history")))
	p.quiet(t)
}

func TestAutoApprove(t *testing.T) {
	p := run(t, Config{AutoApproveFriends: true})
	p.send(`{"post_type":"request","request_type":"friend","user_id":8,"comment":"hi","flag":"f-1"}`)

	req := p.request(t)
	assert.Equal(t, "set_friend_add_request", req.Get("action").String())
	assert.Equal(t, "f-1", req.Get("params.flag").String())
	assert.True(t, req.Get("params.approve").Bool())

	p.send(`{"post_type":"request","request_type":"group","sub_type":"add","group_id":1,"user_id":8,"flag":"g-1"}`)
	p.quiet(t)
}

func TestFriendRequestsIgnoredByDefault(t *testing.T) {
	p := run(t, Config{})
	p.send(`{"post_type":"request","request_type":"friend","user_id":8,"flag":"f-1"}`)
	p.quiet(t)
}

func TestRecallNotice(t *testing.T) {
	p := run(t, Config{})
	p.send(`{"post_type":"notice","notice_type":"friend_recall","user_id":8,"message_id":3}`)

	req := p.request(t)
	assert.Equal(t, "send_private_msg", req.Get("action").String())
	assert.Equal(t, int64(8), req.Get("params.user_id").Int())
	assert.Equal(t, "8 recalled a message", req.Get("params.message.0.data.text").String())
}

func TestInstallRejectsDuplicates(t *testing.T) {
	reg := bot.NewRegistry()
	require.NoError(t, Install(reg, Config{}))
	assert.Error(t, Install(reg, Config{}))
}
