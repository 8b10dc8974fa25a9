package event

// ContentKind 表示可被投票、评论或提及的内容种类
type ContentKind string

const (
	KindQuestion ContentKind = "question"
	KindAnswer   ContentKind = "answer"
	KindComment  ContentKind = "comment"
)

// TargetRef 是一个带标签的内容引用，用于替代字符串拼接式的多态寻址。
// Kind与ID共同唯一确定一条内容。
type TargetRef struct {
	Kind ContentKind `json:"kind"`
	ID   uint        `json:"id"`
}

// IsZero 判断引用是否为空
func (r TargetRef) IsZero() bool {
	return r.Kind == "" || r.ID == 0
}

// Type 定义了领域事件的类型枚举
type Type string

const (
	TypeQuestionPosted  Type = "question_posted"
	TypeAnswerPosted    Type = "answer_posted"
	TypeCommentPosted   Type = "comment_posted"
	TypeVoteCast        Type = "vote_cast"
	TypeVoteChanged     Type = "vote_changed"
	TypeVoteRemoved     Type = "vote_removed"
	TypeAnswerAccepted  Type = "answer_accepted"
	TypeMentionDetected Type = "mention_detected"
	TypeContentDeleted  Type = "content_deleted"
)

// Event 是写入路径发出的领域事件。
// ID是幂等键，重复投递同一ID的事件不会产生重复的衍生状态。
type Event struct {
	// ID 是事件的唯一标识（UUID），用作重放检测的键
	ID string

	// Type 是事件类型
	Type Type

	// ActorID 是触发事件的用户
	ActorID uint

	// Target 是事件作用的内容。
	// 对于投票事件是被投票的内容；对于评论事件是被评论的父级内容；
	// 对于回答事件是所属的问题；对于提及事件是包含提及文本的内容。
	Target TargetRef

	// Subject 是事件新建的内容（新回答、新评论），用于生成跳转链接。
	// 没有新建内容的事件该字段为零值。
	Subject TargetRef

	// VoteValue 是本次投票的方向，+1赞同，-1反对
	VoteValue int

	// OldVoteValue 是改票或撤票前的原方向
	OldVoteValue int

	// MentionedUserIDs 是提及事件中被提及的用户，已按用户去重
	MentionedUserIDs []uint

	// Deleted 是删除事件波及的全部内容引用（被删内容本身及其所有下级）
	Deleted []TargetRef

	// AcceptedAnswerQuestionID 在被删内容是已采纳回答时，指向其所属问题
	AcceptedAnswerQuestionID uint
}

// ContentMeta 是内容解析能力返回的元信息。
// 衍生状态的计算只依赖这些字段，不需要内容全文。
type ContentMeta struct {
	Ref        TargetRef
	AuthorID   uint
	QuestionID uint // 回答和评论所属的问题，问题本身为自身ID
	IsAccepted bool // 仅对回答有意义
}
