package event

const (
	RequestFriend = "friend"
	RequestGroup  = "group"
)

// Request asks the bot to approve a friend add or a group join/invite. Flag
// must be echoed back in the approval call.
type Request struct {
	Header
	RequestType string `json:"request_type"`
	SubType     string `json:"sub_type"`
	UserID      ID     `json:"user_id"`
	GroupID     ID     `json:"group_id"`
	Comment     string `json:"comment"`
	Flag        string `json:"flag"`
}

func (*Request) Kind() Kind { return KindRequest }
