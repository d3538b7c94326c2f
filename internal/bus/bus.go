package bus

// #region imports
import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// #endregion

// #region event

// Event is one message on the bus. Topic routes it to subscribers; Data is
// an arbitrary JSON-marshalable payload.
type Event struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// #endregion

// #region subscription

// Subscription is one subscriber's buffered event feed.
type Subscription struct {
	topic string
	ch    chan Event
}

// Events returns the receive side of the feed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// matches reports whether the subscription wants an event topic.
// "" subscribes to everything; "glyph.*" matches any topic under "glyph.".
func (s *Subscription) matches(topic string) bool {
	switch {
	case s.topic == "":
		return true
	case s.topic == topic:
		return true
	case strings.HasSuffix(s.topic, ".*"):
		return strings.HasPrefix(topic, strings.TrimSuffix(s.topic, "*"))
	}
	return false
}

// #endregion

// #region bus

// Bus is an in-process publish/subscribe hub with topic filtering. Publish
// never blocks: when a subscriber's buffer is full the oldest event is
// evicted so the feed always carries the latest.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	log  *zap.SugaredLogger
}

// New returns an empty bus. Pass nil to disable logging.
func New(log *zap.SugaredLogger) *Bus {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bus{subs: make(map[*Subscription]struct{}), log: log}
}

// Subscribe registers a feed for the given topic filter. buffer must be ≥ 1.
func (b *Bus) Subscribe(topic string, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription{topic: topic, ch: make(chan Event, buffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a feed and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish fans an event out to every matching subscriber and returns the
// number of feeds it reached.
// Sends happen under the read lock so a concurrent Unsubscribe cannot close
// a channel mid-send; they are non-blocking, so the lock is held briefly.
func (b *Bus) Publish(ev Event) int {
	b.mu.RLock()
	delivered := 0
	for sub := range b.subs {
		if !sub.matches(ev.Topic) {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			// Full buffer: evict the oldest and retry once.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
				delivered++
			default:
			}
		}
	}
	b.mu.RUnlock()

	b.log.Debugw("event published", "type", ev.Type, "topic", ev.Topic, "delivered", delivered)
	return delivered
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// #endregion
