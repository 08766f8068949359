// Package events carries window notifications to the render loop. It does not
// depend on the window system, so consumers can be tested without one.
package events

import (
	log "github.com/sirupsen/logrus"
)

// Kind tells what happened to the window.
type Kind int

const (
	// Resized is sent when the framebuffer changes to a non-zero size.
	Resized Kind = iota

	// CloseRequested is sent once when the user asks to close the window.
	CloseRequested
)

func (k Kind) String() string {
	switch k {
	case Resized:
		return "resized"
	case CloseRequested:
		return "close requested"
	default:
		return "unknown"
	}
}

// Event is a notification from the window to the render loop.
type Event struct {
	Kind   Kind
	Width  int
	Height int
}

// Queue feeds events into a bounded channel. When the channel is full the
// oldest resize is dropped so the newest one gets through. A queued close
// request is never dropped. Only one goroutine may send.
type Queue struct {
	ch     chan Event
	closed bool
}

// NewQueue returns a queue holding up to size events.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Event, size)}
}

// C returns the channel events are delivered on.
func (q *Queue) C() <-chan Event {
	return q.ch
}

// Resized queues a resize. Zero sized framebuffers are ignored.
func (q *Queue) Resized(width, height int) {
	if width == 0 || height == 0 {
		log.WithFields(log.Fields{
			"width":  width,
			"height": height,
		}).Debug("ignoring zero framebuffer size")
		return
	}

	q.send(Event{Kind: Resized, Width: width, Height: height})
}

// CloseRequested queues a close request. Only the first call has an effect.
func (q *Queue) CloseRequested() {
	if q.closed {
		return
	}
	q.closed = true

	q.send(Event{Kind: CloseRequested})
}

func (q *Queue) send(ev Event) {
	for {
		select {
		case q.ch <- ev:
			return
		default:
		}

		select {
		case dropped := <-q.ch:
			if dropped.Kind == CloseRequested {
				// The slot just freed is ours since there is a single
				// sender. Keep the close and give up on the new resize.
				q.ch <- dropped
				log.WithField("event", ev.Kind).Debug("window event queue full, dropping newest")
				return
			}
			log.WithField("event", dropped.Kind).Debug("window event queue full, dropping oldest")
		default:
		}
	}
}
