package events

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func drain(q *Queue) []Event {
	var evs []Event
	for {
		select {
		case ev := <-q.C():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestQueueIgnoresZeroSize(t *testing.T) {
	c := qt.New(t)

	q := NewQueue(4)
	q.Resized(0, 600)
	q.Resized(800, 0)
	q.Resized(0, 0)
	q.Resized(1024, 768)

	c.Assert(drain(q), qt.DeepEquals, []Event{
		{Kind: Resized, Width: 1024, Height: 768},
	})
}

func TestQueueCloseOnce(t *testing.T) {
	c := qt.New(t)

	q := NewQueue(4)
	q.CloseRequested()
	q.CloseRequested()

	c.Assert(drain(q), qt.DeepEquals, []Event{{Kind: CloseRequested}})
}

func TestQueueDropsOldest(t *testing.T) {
	c := qt.New(t)

	q := NewQueue(2)
	q.Resized(1, 1)
	q.Resized(2, 2)
	q.Resized(3, 3)
	q.CloseRequested()

	c.Assert(drain(q), qt.DeepEquals, []Event{
		{Kind: Resized, Width: 3, Height: 3},
		{Kind: CloseRequested},
	})
}

func TestQueueKeepsCloseWhenFull(t *testing.T) {
	c := qt.New(t)

	q := NewQueue(4)
	q.CloseRequested()
	for i := 1; i <= 20; i++ {
		q.Resized(i, i)
	}

	closes := 0
	for _, ev := range drain(q) {
		if ev.Kind == CloseRequested {
			closes++
		}
	}
	c.Assert(closes, qt.Equals, 1)
}

func TestQueueKeepsCloseSizeOne(t *testing.T) {
	c := qt.New(t)

	q := NewQueue(1)
	q.Resized(5, 5)
	q.CloseRequested()
	q.Resized(6, 6)

	c.Assert(drain(q), qt.DeepEquals, []Event{{Kind: CloseRequested}})
}

func TestKindString(t *testing.T) {
	c := qt.New(t)

	c.Assert(Resized.String(), qt.Equals, "resized")
	c.Assert(CloseRequested.String(), qt.Equals, "close requested")
	c.Assert(Kind(42).String(), qt.Equals, "unknown")
}
