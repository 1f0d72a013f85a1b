// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package event

import "testing"

func TestPollOrderMatchesPostOrder(t *testing.T) {
	q := NewQueue(4)

	q.Post(Event{Kind: KeyPress, Data1: 1})
	q.Post(Event{Kind: KeyPress, Data1: 2})
	q.Post(Event{Kind: KeyPress, Data1: 3})

	var got []uint32
	var e Event
	for q.Poll(&e) {
		got = append(got, e.Data1)
	}

	want := []uint32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	q := NewQueue(2)

	q.Post(Event{Data1: 1})
	q.Post(Event{Data1: 2})
	q.Post(Event{Data1: 3}) // queue full, drops 1

	var e Event
	if !q.Poll(&e) || e.Data1 != 2 {
		t.Fatalf("expected oldest-surviving event Data1=2, got %+v", e)
	}
	if !q.Poll(&e) || e.Data1 != 3 {
		t.Fatalf("expected Data1=3, got %+v", e)
	}
	if q.Poll(&e) {
		t.Fatalf("expected queue empty")
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	q := NewQueue(4)

	for i := 0; i < 100; i++ {
		q.Post(Event{Data1: uint32(i)})
		if q.Len() > q.Cap() {
			t.Fatalf("queue length %d exceeds capacity %d", q.Len(), q.Cap())
		}
	}
}

func TestPostStampsTimestamp(t *testing.T) {
	q := NewQueue(4)
	q.Now = func() uint64 { return 42 }

	q.Post(Event{Kind: TimerTick})

	var e Event
	q.Poll(&e)
	if e.Timestamp != 42 {
		t.Fatalf("Timestamp = %d, want 42", e.Timestamp)
	}
}

func TestPollOnEmptyQueueReturnsFalse(t *testing.T) {
	q := NewQueue(4)
	var e Event
	if q.Poll(&e) {
		t.Fatalf("expected false on empty queue")
	}
}

func TestDefaultCapacityUsedWhenNonPositive(t *testing.T) {
	q := NewQueue(0)
	if q.Cap() != DefaultCapacity {
		t.Fatalf("Cap() = %d, want %d", q.Cap(), DefaultCapacity)
	}
}
