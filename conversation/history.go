package conversation

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"taskchat/store"
)

const (
	historySizeThreshold    = 100
	historyLatencyThreshold = 500 * time.Millisecond
)

// loadHistory re-reads the full message sequence from storage. There is no
// in-process cache; every turn pays the read so any engine instance can serve
// any conversation. Oversized or slow histories are logged as advisory
// signals, never failures.
func loadHistory(ctx context.Context, messages store.MessageStore, conversationID string, log hclog.Logger) ([]store.Message, error) {
	start := time.Now()
	msgs, err := messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if len(msgs) > historySizeThreshold {
		log.Warn("large conversation history", "conversation_id", conversationID, "messages", len(msgs))
	}
	if elapsed > historyLatencyThreshold {
		log.Warn("slow history retrieval", "conversation_id", conversationID, "elapsed", elapsed)
	}

	return msgs, nil
}
