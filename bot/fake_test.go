package bot

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeConn is an in-memory Conn. Frames pushed to in are read by the bot;
// frames the bot writes appear on out.
type fakeConn struct {
	in       chan []byte
	out      chan []byte
	closed   chan struct{}
	once     sync.Once
	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// next returns the next frame the bot wrote.
func (c *fakeConn) next(t *testing.T) gjson.Result {
	t.Helper()
	select {
	case f := <-c.out:
		return gjson.ParseBytes(f)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame written")
		return gjson.Result{}
	}
}

// servedBot starts a bot over a fake connection and stops it when the test
// ends.
func servedBot(t *testing.T, procs ...Processor) (*Bot, *fakeConn) {
	t.Helper()
	b := newBot(context.Background(), procs, Options{})
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.serve(conn)
	}()
	require.Eventually(t, func() bool { return b.currentConn() != nil }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		b.Shutdown()
		<-done
	})
	return b, conn
}

// answer replies to every request on conn with the data produced by fn.
func answer(conn *fakeConn, fn func(req gjson.Result) (retcode int, data string)) {
	go func() {
		for {
			select {
			case f := <-conn.out:
				req := gjson.ParseBytes(f)
				code, data := fn(req)
				status := "ok"
				if code != 0 {
					status = "failed"
				}
				frame := `{"status":"` + status + `","retcode":` + strconv.Itoa(code) +
					`,"data":` + data + `,"message":"boom","echo":"` + req.Get("echo").String() + `"}`
				conn.in <- []byte(frame)
			case <-conn.closed:
				return
			}
		}
	}()
}
