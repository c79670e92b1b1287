package event

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/nicebartender/runbot/errs"
)

// Response answers a request we sent; Echo carries our correlation token.
type Response struct {
	Status  string          `json:"status"`
	RetCode int64           `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Echo    string          `json:"echo"`

	raw []byte
}

func (*Response) Kind() Kind          { return KindResponse }
func (r *Response) Raw() []byte       { return r.raw }
func (r *Response) setRaw(raw []byte) { r.raw = raw }

// Err is a State error when the server rejected the call.
func (r *Response) Err() error {
	if r.RetCode == 0 {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = r.Wording
	}
	return errs.State("response", "retcode %d: %s", r.RetCode, msg)
}

// Get extracts a field from the response data.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Data, path)
}
