package client

import (
	"context"
	"time"

	"github.com/xxxsen/griffin/internal/model"
)

// PollConversation fetches new items of a conversation once per poll interval
// until the server reports completed, a request fails or ctx is done. The next
// request is only scheduled after the previous one returned, so requests never
// overlap.
//
// onItems receives every item that reached a final status since the last call,
// in seq order. The returned cursor is the seq of the last delivered item and
// can be passed as after to resume.
func (c *Client) PollConversation(ctx context.Context, conversationID string, after int64, onItems func([]model.ConversationItem)) (int64, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return after, ctx.Err()
		case <-timer.C:
		}
		res, err := c.Poll(ctx, conversationID, after)
		if err != nil {
			return after, err
		}
		var done []model.ConversationItem
		done, after = settled(res.Items, after)
		if len(done) > 0 && onItems != nil {
			onItems(done)
		}
		if res.Completed {
			return after, nil
		}
		timer.Reset(c.pollInterval)
	}
}

// settled returns the leading run of non-pending items and the advanced
// cursor. A pending item stops the run so it is fetched again next time.
func settled(items []model.ConversationItem, after int64) ([]model.ConversationItem, int64) {
	out := make([]model.ConversationItem, 0, len(items))
	for _, item := range items {
		if item.Seq <= after {
			continue
		}
		if item.Status == model.ItemStatusPending {
			break
		}
		out = append(out, item)
		after = item.Seq
	}
	return out, after
}
