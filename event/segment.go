package event

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Segment types.
const (
	SegText    = "text"
	SegFace    = "face"
	SegImage   = "image"
	SegAt      = "at"
	SegReply   = "reply"
	SegForward = "forward"
)

// Segment is one element of a message chain. Data is kept raw so unknown
// segment types round-trip untouched.
type Segment struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Get extracts a field from the segment data.
func (s Segment) Get(path string) gjson.Result {
	return gjson.GetBytes(s.Data, path)
}

// Text returns the text of a text segment.
func (s Segment) Text() string {
	if s.Type != SegText {
		return ""
	}
	return s.Get("text").String()
}

// AtTarget returns the qq field of an at segment: a user id, or "all".
func (s Segment) AtTarget() string {
	if s.Type != SegAt {
		return ""
	}
	return s.Get("qq").String()
}

// Chain is a message body.
type Chain []Segment

// UnmarshalJSON accepts the array form and the CQ-code string form. A string
// body is kept as a single text segment.
func (c *Chain) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Chain{Text(s)}
		return nil
	}
	return json.Unmarshal(b, (*[]Segment)(c))
}

// PlainText concatenates the text segments.
func (c Chain) PlainText() string {
	var sb strings.Builder
	for _, s := range c {
		sb.WriteString(s.Text())
	}
	return sb.String()
}

func segment(typ, key string, value any) Segment {
	// Keys are fixed literals, so SetBytes cannot fail on the path.
	data, _ := sjson.SetBytes([]byte(`{}`), key, value)
	return Segment{Type: typ, Data: data}
}

func Text(text string) Segment { return segment(SegText, "text", text) }

func At(user ID) Segment { return segment(SegAt, "qq", user.String()) }

func AtAll() Segment { return segment(SegAt, "qq", "all") }

func Reply(message ID) Segment { return segment(SegReply, "id", message.String()) }

func Image(file string) Segment { return segment(SegImage, "file", file) }

func Face(id int) Segment { return segment(SegFace, "id", strconv.Itoa(id)) }
