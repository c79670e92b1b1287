package bot

import (
	"context"
	"encoding/json"
)

// Conn is the duplex text-frame connection a Bot runs over. ReadMessage is
// only called from one goroutine; Close must unblock it.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// DialFunc opens a client connection.
type DialFunc func(ctx context.Context, url, token string) (Conn, error)

// actionFrame is the outbound request format.
type actionFrame struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

func encodeAction(action string, params any, echo string) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	return json.Marshal(actionFrame{Action: action, Params: params, Echo: echo})
}
