package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicebartender/runbot/errs"
)

func echoServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Accept(w, r, token)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialRoundTrip(t *testing.T) {
	srv := echoServer(t, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(srv), "secret")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage([]byte(`{"action":"get_login_info"}`)))
	got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"get_login_info"}`, string(got))
	assert.NotEmpty(t, conn.RemoteAddr())
}

func TestDialRejectedToken(t *testing.T) {
	srv := echoServer(t, "secret")
	_, err := Dial(context.Background(), wsURL(srv), "wrong")
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
	assert.Contains(t, err.Error(), "401")
}

func TestDialCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/", "")
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
}

func TestReadSkipsBinaryFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		c.WriteMessage(websocket.BinaryMessage, []byte{0x1})
		c.WriteMessage(websocket.TextMessage, []byte(`{"post_type":"meta_event"}`))
		c.ReadMessage()
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	require.NoError(t, err)
	defer conn.Close()

	got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"post_type":"meta_event"}`, string(got))
}

func TestCloseUnblocksRead(t *testing.T) {
	srv := echoServer(t, "")
	conn, err := Dial(context.Background(), wsURL(srv), "")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := conn.ReadMessage()
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Error(t, conn.Close())

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not return after Close")
	}
}

func TestKeepaliveKeepsConnectionOpen(t *testing.T) {
	srv := echoServer(t, "")
	conn, err := Dial(context.Background(), wsURL(srv), "")
	require.NoError(t, err)
	defer conn.Close()

	conn.Keepalive(50 * time.Millisecond)

	// Idle for several read deadlines; pongs must keep extending it.
	go func() {
		time.Sleep(300 * time.Millisecond)
		conn.WriteMessage([]byte(`"late"`))
	}()
	got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `"late"`, string(got))
}

func TestIsClosed(t *testing.T) {
	normal := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	assert.True(t, IsClosed(normal))
	assert.True(t, IsClosed(errs.Transport("read", normal)))
	assert.True(t, IsClosed(errs.Transport("read", &websocket.CloseError{Code: websocket.CloseGoingAway})))
	assert.True(t, IsClosed(errs.Transport("read", net.ErrClosed)))

	assert.False(t, IsClosed(errs.Transport("read", &websocket.CloseError{Code: websocket.CloseAbnormalClosure})))
	assert.False(t, IsClosed(errs.Transport("read", errors.New("reset by peer"))))
	assert.False(t, IsClosed(nil))
}
