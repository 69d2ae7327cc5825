package ai

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// per-message framing overhead used by chat completion endpoints
const messageOverheadTokens = 4

type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the named BPE encoding. When the encoding cannot be
// loaded the counter falls back to EstimateTokens.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		return &TokenCounter{}
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

func (c *TokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens approximates the token count: one per word plus one per
// non-ASCII rune.
func EstimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}

// TrimHistory keeps every leading system message and as many of the most
// recent messages as fit in budget. The newest message is always kept.
func TrimHistory(msgs []Message, budget int, count func(string) int) []Message {
	if len(msgs) == 0 || budget <= 0 {
		return msgs
	}
	head := 0
	used := 0
	for head < len(msgs) && msgs[head].Role == "system" {
		used += count(msgs[head].Content) + messageOverheadTokens
		head++
	}
	start := len(msgs)
	for i := len(msgs) - 1; i >= head; i-- {
		cost := count(msgs[i].Content) + messageOverheadTokens
		if used+cost > budget && start < len(msgs) {
			break
		}
		used += cost
		start = i
	}
	out := make([]Message, 0, head+len(msgs)-start)
	out = append(out, msgs[:head]...)
	out = append(out, msgs[start:]...)
	return out
}
