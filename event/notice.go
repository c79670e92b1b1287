package event

// notice_type values.
const (
	NoticeGroupUpload   = "group_upload"
	NoticeGroupAdmin    = "group_admin"
	NoticeGroupDecrease = "group_decrease"
	NoticeGroupIncrease = "group_increase"
	NoticeGroupBan      = "group_ban"
	NoticeFriendAdd     = "friend_add"
	NoticeGroupRecall   = "group_recall"
	NoticeFriendRecall  = "friend_recall"
	NoticeNotify        = "notify"
)

// sub_type values of notify notices.
const (
	NotifyPoke      = "poke"
	NotifyLuckyKing = "lucky_king"
	NotifyHonor     = "honor"
)

// Notice is flat: the fields a given notice_type does not use stay zero.
type Notice struct {
	Header
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    ID     `json:"group_id"`
	UserID     ID     `json:"user_id"`
	OperatorID ID     `json:"operator_id"`
	TargetID   ID     `json:"target_id"`
	MessageID  ID     `json:"message_id"`
	// Duration is the ban length in seconds for group_ban.
	Duration  int64       `json:"duration"`
	HonorType string      `json:"honor_type"`
	File      *UploadFile `json:"file,omitempty"`
}

func (*Notice) Kind() Kind { return KindNotice }

type UploadFile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	BusID int64  `json:"busid"`
}
