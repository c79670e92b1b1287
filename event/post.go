// Package event decodes the frames a OneBot implementation pushes over the
// connection into typed posts.
package event

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/nicebartender/runbot/errs"
)

// Kind is the tag of a decoded frame.
type Kind int

const (
	KindUnknown Kind = iota
	KindMessage
	KindMessageSent
	KindNotice
	KindRequest
	KindMeta
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindMessageSent:
		return "message_sent"
	case KindNotice:
		return "notice"
	case KindRequest:
		return "request"
	case KindMeta:
		return "meta_event"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// post_type values.
const (
	PostMessage     = "message"
	PostMessageSent = "message_sent"
	PostNotice      = "notice"
	PostRequest     = "request"
	PostMeta        = "meta_event"
)

// Post is any decoded inbound frame.
type Post interface {
	Kind() Kind
	// Raw returns the frame the post was decoded from.
	Raw() []byte
}

type rawSetter interface {
	setRaw([]byte)
}

// Header carries the fields every event shares.
type Header struct {
	Time     int64  `json:"time"`
	SelfID   ID     `json:"self_id"`
	PostType string `json:"post_type"`

	raw []byte
}

func (h *Header) Raw() []byte       { return h.raw }
func (h *Header) setRaw(raw []byte) { h.raw = raw }
func (h *Header) header() *Header   { return h }

// SelfIDOf returns the self_id of an event, or 0 for responses.
func SelfIDOf(p Post) ID {
	if h, ok := p.(interface{ header() *Header }); ok {
		return h.header().SelfID
	}
	return 0
}

// Unknown is an event with a post_type this package does not model.
type Unknown struct {
	Header
}

func (*Unknown) Kind() Kind { return KindUnknown }

// Parse decodes one frame. Frames carrying a retcode are responses to our
// own requests; everything else is routed on post_type. Malformed frames
// return a Field error.
func Parse(frame []byte) (Post, error) {
	if !gjson.ValidBytes(frame) {
		return nil, errs.Field("parse", "frame is not valid JSON")
	}
	root := gjson.ParseBytes(frame)
	if !root.IsObject() {
		return nil, errs.Field("parse", "frame is not an object")
	}

	if root.Get("retcode").Exists() {
		var r Response
		if err := json.Unmarshal(frame, &r); err != nil {
			return nil, errs.Wrap(errs.KindField, "parse response", err)
		}
		r.setRaw(frame)
		return &r, nil
	}

	pt := root.Get("post_type")
	if !pt.Exists() {
		return nil, errs.Field("parse", "missing post_type")
	}

	var (
		p        Post
		required string
	)
	switch pt.String() {
	case PostMessage, PostMessageSent:
		p, required = &Message{}, "message_type"
	case PostNotice:
		p, required = &Notice{}, "notice_type"
	case PostRequest:
		p, required = &Request{}, "request_type"
	case PostMeta:
		p, required = &Meta{}, "meta_event_type"
	default:
		p = &Unknown{}
	}
	if required != "" && !root.Get(required).Exists() {
		return nil, errs.Field("parse "+pt.String(), "missing %s", required)
	}
	if err := json.Unmarshal(frame, p); err != nil {
		return nil, errs.Wrap(errs.KindField, "parse "+pt.String(), err)
	}
	p.(rawSetter).setRaw(frame)
	return p, nil
}
