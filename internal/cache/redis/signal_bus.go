package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// streamMaxLen caps the durable event mirror, enforced via XADD MAXLEN ~.
const streamMaxLen int64 = 10000

// channelPrefix namespaces every bus channel in the shared Redis instance.
const channelPrefix = "polyagent:"

// SignalBus implements domain.SignalBus on Redis Pub/Sub, with each event
// also mirrored into a capped stream so late consumers can replay recent
// order activity.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish JSON-encodes an event and fans it out on the named channel. The
// durable stream append is best-effort and never fails the publish.
func (sb *SignalBus) Publish(ctx context.Context, channel string, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	if err := sb.rdb.Publish(ctx, channelPrefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}

	_ = sb.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: channelPrefix + "stream:" + channel,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}).Err()

	return nil
}

// Subscribe opens a subscription over the given channel patterns and returns
// a channel of decoded events plus a cancel function. Undecodable payloads
// are dropped.
func (sb *SignalBus) Subscribe(ctx context.Context, patterns ...string) (<-chan domain.Event, func(), error) {
	if len(patterns) == 0 {
		return nil, nil, fmt.Errorf("redis: subscribe: at least one pattern required")
	}

	prefixed := make([]string, len(patterns))
	usePattern := false
	for i, p := range patterns {
		prefixed[i] = channelPrefix + p
		if strings.ContainsAny(p, "*?[") {
			usePattern = true
		}
	}

	subCtx, cancel := context.WithCancel(ctx)

	var pubsub *redis.PubSub
	if usePattern {
		pubsub = sb.rdb.PSubscribe(subCtx, prefixed...)
	} else {
		pubsub = sb.rdb.Subscribe(subCtx, prefixed...)
	}

	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis: subscribe %v: %w", patterns, err)
	}

	out := make(chan domain.Event, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
