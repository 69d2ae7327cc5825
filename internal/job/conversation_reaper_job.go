package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/repo"
)

const reaperErrMsg = "reply timed out"

// ConversationReaperJob fails assistant items that stayed pending longer
// than timeout, so polling clients see a terminal state.
type ConversationReaperJob struct {
	items   *repo.ConversationItemRepo
	timeout time.Duration
	now     func() time.Time
}

func NewConversationReaperJob(items *repo.ConversationItemRepo, timeout time.Duration) *ConversationReaperJob {
	return &ConversationReaperJob{items: items, timeout: timeout, now: time.Now}
}

func (j *ConversationReaperJob) Name() string {
	return "conversation_reaper"
}

func (j *ConversationReaperJob) Run(ctx context.Context) error {
	if j.items == nil {
		return nil
	}
	timeout := j.timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	now := j.now()
	cutoff := now.Add(-timeout).Unix()
	cnt, err := j.items.FailPendingBefore(ctx, cutoff, reaperErrMsg, now.Unix())
	if err != nil {
		return err
	}
	if cnt > 0 {
		logutil.GetLogger(ctx).Warn("failed stale pending conversation items", zap.Int64("count", cnt))
	}
	return nil
}
