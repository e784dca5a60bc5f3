package workspace

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_ChannelClosedAfterUnsubscribe(t *testing.T) {
	bus := NewBus(8, silentLogger)

	sub, cancel := bus.Subscribe()
	require.NotNil(t, sub)

	cancel()

	_, open := <-sub.Ch
	assert.False(t, open, "Ch closed")
	select {
	case <-sub.Done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Done channel should be closed")
	}

	// second cancel is a no-op
	cancel()
	subs, _ := bus.Stats()
	assert.Zero(t, subs)
}

func TestBus_PublishReachesEverySubscriber(t *testing.T) {
	bus := NewBus(8, silentLogger)
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(Event{Type: EventNoteDeleted, ID: "n1"})

	for _, sub := range []*Subscriber{a, b} {
		select {
		case ev := <-sub.Ch:
			assert.Equal(t, EventNoteDeleted, ev.Type)
			assert.True(t, ev.Matches("n1"))
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBus_DropsWhenBufferFull(t *testing.T) {
	bus := NewBus(1, silentLogger)
	sub, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Type: EventNoteCreated, ID: "a"})
	bus.Publish(Event{Type: EventNoteCreated, ID: "b"})
	bus.Publish(Event{Type: EventNoteCreated, ID: "c"})

	subs, dropped := bus.Stats()
	assert.Equal(t, 1, subs)
	assert.Equal(t, uint64(2), dropped)
	assert.Equal(t, "a", (<-sub.Ch).ID)

	select {
	case <-sub.Lagged:
	default:
		t.Fatal("subscriber not told about the dropped events")
	}
	select {
	case <-sub.Lagged:
		t.Fatal("drops coalesce into one signal")
	default:
	}
}

func TestBus_NoLagSignalWithoutDrops(t *testing.T) {
	bus := NewBus(4, silentLogger)
	sub, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Type: EventNoteDeleted, ID: "a"})
	select {
	case <-sub.Lagged:
		t.Fatal("unexpected lag signal")
	default:
	}
}

func TestBus_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := NewBus(4, silentLogger)

	var publishers, readers sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, cancel := bus.Subscribe()
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(Event{Type: EventNoteUpdated, ID: "n"})
			}
		}()
		readers.Add(1)
		go func() {
			defer readers.Done()
			for range sub.Ch {
				cancel()
			}
		}()
	}
	publishers.Wait()
	bus.Close()
	readers.Wait()

	subs, _ := bus.Stats()
	assert.Zero(t, subs)
}

func TestEvent_Matches(t *testing.T) {
	ev := Event{ID: "note-1", PrevID: "tmp_x"}
	assert.True(t, ev.Matches("note-1"))
	assert.True(t, ev.Matches("tmp_x"))
	assert.False(t, ev.Matches("note-2"))
	assert.False(t, Event{}.Matches(""))
}
