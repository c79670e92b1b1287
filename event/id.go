package event

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nicebartender/runbot/errs"
)

// ID is a user, group or message id. Implementations disagree on whether
// ids are numbers or numeric strings, so both decode.
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id *ID) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Number:
		*id = ID(r.Int())
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errs.Field("decode id", "%q is not a number", r.Str)
		}
		*id = ID(n)
	case gjson.Null:
		*id = 0
	default:
		return errs.Field("decode id", "unexpected %s", r.Raw)
	}
	return nil
}

// ParseID parses a decimal id such as an at-segment target.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errs.Field("parse id", "%q is not a number", s)
	}
	return ID(n), nil
}
