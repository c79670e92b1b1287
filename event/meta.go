package event

const (
	MetaLifecycle = "lifecycle"
	MetaHeartbeat = "heartbeat"
)

type Meta struct {
	Header
	MetaEventType string  `json:"meta_event_type"`
	SubType       string  `json:"sub_type"`
	Status        *Status `json:"status,omitempty"`
	// Interval is the heartbeat period in milliseconds.
	Interval int64 `json:"interval"`
}

func (*Meta) Kind() Kind { return KindMeta }

type Status struct {
	Online bool `json:"online"`
	Good   bool `json:"good"`
}
