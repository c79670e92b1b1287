package modules

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/db"
)

// peer plays the OneBot implementation: it feeds events to the bot and
// answers every request with an empty success.
type peer struct {
	in     chan []byte
	reqs   chan gjson.Result
	closed chan struct{}
	once   sync.Once
}

func (p *peer) ReadMessage() ([]byte, error) {
	select {
	case f := <-p.in:
		return f, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *peer) WriteMessage(data []byte) error {
	select {
	case <-p.closed:
		return net.ErrClosed
	default:
	}
	req := gjson.ParseBytes(data)
	p.reqs <- req
	p.in <- []byte(`{"status":"ok","retcode":0,"data":{"message_id":1},"echo":"` + req.Get("echo").String() + `"}`)
	return nil
}

func (p *peer) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// send pushes an event frame to the bot.
func (p *peer) send(frame string) { p.in <- []byte(frame) }

// request returns the next request the bot made.
func (p *peer) request(t *testing.T) gjson.Result {
	t.Helper()
	select {
	case r := <-p.reqs:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("bot sent no request")
		return gjson.Result{}
	}
}

// quiet asserts the bot sends nothing for a short while.
func (p *peer) quiet(t *testing.T) {
	t.Helper()
	select {
	case r := <-p.reqs:
		t.Fatalf("unexpected request %s", r.Raw)
	case <-time.After(50 * time.Millisecond):
	}
}

// run installs cfg on a fresh registry and connects it to a peer.
func run(t *testing.T, cfg Config) *peer {
	t.Helper()
	reg := bot.NewRegistry()
	require.NoError(t, Install(reg, cfg))

	p := &peer{
		in:     make(chan []byte, 64),
		reqs:   make(chan gjson.Result, 64),
		closed: make(chan struct{}),
	}
	c, err := bot.NewClient(bot.ClientConfig{
		URL: "ws://onebot",
		Dial: func(context.Context, string, string) (bot.Conn, error) {
			return p, nil
		},
	}, reg)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(context.Background())
	}()
	require.Eventually(t, func() bool { return c.State() == bot.Connected }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		c.Shutdown()
		<-done
	})
	return p
}

func openArchive(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "runbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// groupMsg builds a group message event from role and a message array.
func groupMsg(id int, user int64, role, message string) string {
	return `{"post_type":"message","message_type":"group","sub_type":"normal","self_id":1,` +
		`"message_id":` + strconv.Itoa(id) + `,"group_id":100,"user_id":` + strconv.FormatInt(user, 10) +
		`,"sender":{"user_id":` + strconv.FormatInt(user, 10) + `,"nickname":"nick","role":"` + role + `"},` +
		`"message":` + message + `}`
}

func text(s string) string {
	return `[{"type":"text","data":{"text":"` + s + `"}}]`
}
