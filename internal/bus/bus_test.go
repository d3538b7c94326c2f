package bus

import (
	"testing"
	"time"
)

func recvTimeout(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublish_TopicFiltering(t *testing.T) {
	b := New(nil)

	cognitive := b.Subscribe("cognitive", 4)
	symbolic := b.Subscribe("symbolic", 4)
	all := b.Subscribe("", 4)
	defer b.Unsubscribe(cognitive)
	defer b.Unsubscribe(symbolic)
	defer b.Unsubscribe(all)

	if n := b.Publish(Event{Type: "zone.classified", Topic: "cognitive"}); n != 2 {
		t.Errorf("delivered: got %d, want 2", n)
	}

	ev := recvTimeout(t, cognitive)
	if ev.Type != "zone.classified" {
		t.Errorf("type: %q", ev.Type)
	}
	recvTimeout(t, all)

	select {
	case ev := <-symbolic.Events():
		t.Errorf("symbolic feed got unrelated event: %+v", ev)
	default:
	}
}

func TestPublish_WildcardTopics(t *testing.T) {
	b := New(nil)

	glyphs := b.Subscribe("glyph.*", 4)
	defer b.Unsubscribe(glyphs)

	b.Publish(Event{Type: "a", Topic: "glyph.initiation"})
	b.Publish(Event{Type: "b", Topic: "glyph.process"})
	b.Publish(Event{Type: "c", Topic: "cognitive"})

	if ev := recvTimeout(t, glyphs); ev.Type != "a" {
		t.Errorf("first: %q", ev.Type)
	}
	if ev := recvTimeout(t, glyphs); ev.Type != "b" {
		t.Errorf("second: %q", ev.Type)
	}
	select {
	case ev := <-glyphs.Events():
		t.Errorf("wildcard matched unrelated topic: %+v", ev)
	default:
	}
}

func TestPublish_FullBufferKeepsLatest(t *testing.T) {
	b := New(nil)

	sub := b.Subscribe("cognitive", 2)
	defer b.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: string(rune('a' + i)), Topic: "cognitive"})
	}

	// Publisher never blocked; the buffer holds the most recent events.
	last := recvTimeout(t, sub)
	final := recvTimeout(t, sub)
	if final.Type != "e" {
		t.Errorf("latest event lost: got %q then %q", last.Type, final.Type)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New(nil)

	sub := b.Subscribe("cognitive", 1)
	if b.SubscriberCount() != 1 {
		t.Fatalf("count: %d", b.SubscriberCount())
	}
	b.Unsubscribe(sub)
	if b.SubscriberCount() != 0 {
		t.Errorf("count after unsubscribe: %d", b.SubscriberCount())
	}

	// Feed closes so consumers can stop ranging.
	if _, open := <-sub.Events(); open {
		t.Error("channel still open after unsubscribe")
	}

	// Double unsubscribe is a no-op.
	b.Unsubscribe(sub)

	if n := b.Publish(Event{Topic: "cognitive"}); n != 0 {
		t.Errorf("delivered to removed subscriber: %d", n)
	}
}
