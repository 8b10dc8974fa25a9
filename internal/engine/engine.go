package engine

import (
	"fmt"
	"time"

	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/mention"
	"github.com/SlpAus/devboard-backend/internal/notification"
	"github.com/SlpAus/devboard-backend/internal/platform/config"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

// State 是单个事件处理过程的状态
type State string

const (
	StateReceived               State = "Received"
	StateReputationApplied      State = "ReputationApplied"
	StateNotificationsGenerated State = "NotificationsGenerated"
	StateCommitted              State = "Committed"
	StateFailed                 State = "Failed"
)

// execution 追踪一个事件从接收到提交的状态迁移。
// 状态只向前走；任何非终态都可以直接迁移到Failed。
type execution struct {
	evt   event.Event
	state State
}

func (x *execution) advance(s State) {
	x.state = s
}

func (x *execution) fail(err error) {
	prev := x.state
	x.state = StateFailed
	fmt.Printf("引擎: 事件 %s (%s) 在 %s 阶段失败: %v\n", x.evt.ID, x.evt.Type, prev, err)
}

// --- 能力注册 ---
// 引擎不直接依赖内容和投票的存储实现，
// 而是通过启动时注册的能力函数完成跨模块写入，避免包环。

// ContentResolver 把一个内容引用解析为处理所需的元信息
type ContentResolver func(tx *gorm.DB, ref event.TargetRef) (*event.ContentMeta, error)

// VotePurger 删除目标内容上的全部投票记录
type VotePurger func(tx *gorm.DB, ref event.TargetRef) error

// AcceptedAnswerClearer 清除问题的已采纳回答指针
type AcceptedAnswerClearer func(tx *gorm.DB, questionID uint) error

var (
	resolveContent      ContentResolver
	purgeVotes          VotePurger
	clearAcceptedAnswer AcceptedAnswerClearer
)

// RegisterContentResolver 由content模块在启动时调用
func RegisterContentResolver(fn ContentResolver) { resolveContent = fn }

// RegisterVotePurger 由vote模块在启动时调用
func RegisterVotePurger(fn VotePurger) { purgeVotes = fn }

// RegisterAcceptedAnswerClearer 由content模块在启动时调用
func RegisterAcceptedAnswerClearer(fn AcceptedAnswerClearer) { clearAcceptedAnswer = fn }

// --- 投影缓冲 ---

// projectionUpdate 缓冲一个写入单元在事务内产生的Redis投影变更。
// 投影写入必须等事务提交后进行，与已处理事件缓存遵循同一纪律：
// 回滚（包括锁忙重试）的单元不能推高未读计数或排行分数。
type projectionUpdate struct {
	unread  map[uint]int64
	ranking map[uint]int
}

func newProjectionUpdate() *projectionUpdate {
	return &projectionUpdate{
		unread:  make(map[uint]int64),
		ranking: make(map[uint]int),
	}
}

func (p *projectionUpdate) mergeUnread(deltas map[uint]int64) {
	for userID, delta := range deltas {
		p.unread[userID] += delta
	}
}

// apply 在事务提交后把缓冲的变更写入Redis
func (p *projectionUpdate) apply() {
	for userID, points := range p.ranking {
		user.RefreshRankingEntry(userID, points)
	}
	notification.ApplyUnreadDeltas(p.unread)
}

// --- 事件处理 ---

// knownTypes 是引擎认识的事件类型全集。
// 不在表中的类型按无操作提交，绝不因为衍生状态的缺陷阻断核心写入。
var knownTypes = map[event.Type]bool{
	event.TypeQuestionPosted:  true,
	event.TypeAnswerPosted:    true,
	event.TypeCommentPosted:   true,
	event.TypeVoteCast:        true,
	event.TypeVoteChanged:     true,
	event.TypeVoteRemoved:     true,
	event.TypeAnswerAccepted:  true,
	event.TypeMentionDetected: true,
	event.TypeContentDeleted:  true,
}

// needsTargetMeta 列出需要解析目标元信息的事件类型
var needsTargetMeta = map[event.Type]bool{
	event.TypeAnswerPosted:    true,
	event.TypeCommentPosted:   true,
	event.TypeVoteCast:        true,
	event.TypeVoteChanged:     true,
	event.TypeVoteRemoved:     true,
	event.TypeAnswerAccepted:  true,
	event.TypeMentionDetected: true,
}

// validate 检查事件的基本形状
func validate(e event.Event) error {
	if e.ID == "" {
		return NewValidationError("事件缺少ID")
	}
	if e.Type == "" {
		return NewValidationError("事件缺少类型")
	}
	if e.ActorID == 0 && e.Type != event.TypeContentDeleted {
		return NewValidationError("事件缺少触发者")
	}
	if needsTargetMeta[e.Type] && e.Target.IsZero() {
		return NewValidationError("事件缺少目标引用")
	}
	return nil
}

// creditedUser 返回声望变化的受益（或受损）用户。
// 提问加分记在提问者头上，投票与采纳的分数记在目标内容作者头上。
func creditedUser(e event.Event, meta *event.ContentMeta) uint {
	switch e.Type {
	case event.TypeQuestionPosted:
		return e.ActorID
	case event.TypeVoteCast, event.TypeVoteChanged, event.TypeVoteRemoved, event.TypeAnswerAccepted:
		if meta != nil {
			return meta.AuthorID
		}
	}
	return 0
}

// process 在给定事务内同步处理一个事件，走完整个状态机。
// 投影变更只进入pending缓冲，不直接写Redis。
// 返回nil表示事件已提交（包括按无操作提交的未知类型、重放和良性竞态）。
// 返回非nil表示衍生状态写入失败，调用方必须回滚整个事务。
func process(tx *gorm.DB, e event.Event, pending *projectionUpdate) error {
	exec := &execution{evt: e, state: StateReceived}

	// Received: 校验事件形状
	if err := validate(e); err != nil {
		// 校验失败的事件被丢弃，不产生副作用，也不阻断主写入
		fmt.Printf("引擎: 丢弃非法事件 (%s): %v\n", e.Type, err)
		return nil
	}
	if !knownTypes[e.Type] {
		// 未知类型按无操作提交
		fmt.Printf("引擎: 忽略未知事件类型 %s (事件 %s)\n", e.Type, e.ID)
		exec.advance(StateCommitted)
		return nil
	}

	// 重放判定：先走Redis快速路径，再以事务内的主键冲突为准
	if wasProcessedFast(e.ID) {
		exec.advance(StateCommitted)
		return nil
	}
	replay, err := checkAndRecordEvent(tx, e.ID)
	if err != nil {
		exec.fail(err)
		return fmt.Errorf("%w: %v", ErrConsistency, err)
	}
	if replay {
		exec.advance(StateCommitted)
		return nil
	}

	// 解析目标元信息。目标在事件产生后消失属于良性竞态，丢弃事件即可。
	var meta *event.ContentMeta
	if needsTargetMeta[e.Type] {
		meta, err = resolveContent(tx, e.Target)
		if err != nil {
			if IsNotFound(err) {
				fmt.Printf("引擎: 事件 %s 的目标已消失，按良性竞态丢弃\n", e.ID)
				exec.advance(StateCommitted)
				return nil
			}
			exec.fail(err)
			return fmt.Errorf("%w: %v", ErrConsistency, err)
		}
	}

	// ReputationApplied: 声望与徽章等级在主写入的事务内一并更新
	exec.advance(StateReputationApplied)
	if delta := user.ReputationDelta(e); delta != 0 {
		if credited := creditedUser(e, meta); credited != 0 {
			points, err := user.ApplyReputationDelta(tx, credited, delta, e)
			if err != nil {
				exec.fail(err)
				return fmt.Errorf("%w: %v", ErrConsistency, err)
			}
			pending.ranking[credited] = points
		}
	}

	// NotificationsGenerated: 新增类事件生成通知，删除类事件触发孤儿清理
	exec.advance(StateNotificationsGenerated)
	if e.Type == event.TypeContentDeleted {
		if err := reap(tx, e, pending); err != nil {
			exec.fail(err)
			return fmt.Errorf("%w: %v", ErrConsistency, err)
		}
	} else {
		drafts := notification.Generate(e, meta)
		deltas, err := notification.PersistDrafts(tx, drafts)
		if err != nil {
			exec.fail(err)
			return fmt.Errorf("%w: %v", ErrConsistency, err)
		}
		pending.mergeUnread(deltas)
		if e.Type == event.TypeMentionDetected {
			if err := mention.ReplaceForContent(tx, e.Target, e.MentionedUserIDs); err != nil {
				exec.fail(err)
				return fmt.Errorf("%w: %v", ErrConsistency, err)
			}
		}
	}

	exec.advance(StateCommitted)
	return nil
}

// RunUnitOfWork 执行一个写入单元：主写入和它产生的事件在同一个事务中落盘。
// work返回主写入产生的事件；任一事件处理失败都会回滚整个单元。
// 瞬时冲突在引擎边界重试一次（带退避），其余错误原样上抛。
func RunUnitOfWork(work func(tx *gorm.DB) ([]event.Event, error)) error {
	var committed []string
	var pending *projectionUpdate

	operation := func() error {
		committed = committed[:0]
		pending = newProjectionUpdate()
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			events, err := work(tx)
			if err != nil {
				return err
			}
			for _, e := range events {
				if err := process(tx, e, pending); err != nil {
					return err
				}
				committed = append(committed, e.ID)
			}
			return nil
		})
		if err != nil && !database.IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval()
	if err := backoff.Retry(operation, backoff.WithMaxRetries(b, 1)); err != nil {
		return err
	}

	// 事务已提交，才把已处理的事件ID和投影变更写入Redis
	for _, id := range committed {
		cacheProcessedEventID(id)
	}
	pending.apply()
	return nil
}

func retryInitialInterval() time.Duration {
	if config.Cfg != nil && config.Cfg.Engine.RetryInitialIntervalMS > 0 {
		return time.Duration(config.Cfg.Engine.RetryInitialIntervalMS) * time.Millisecond
	}
	return 50 * time.Millisecond
}
