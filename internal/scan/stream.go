package scan

import (
	"context"
	"sync"
)

type frameOutcome struct {
	res *Decoded
	err error
}

// frameStream turns the adapter's repeated per-frame callbacks into a
// channel read by a single consumer. Producers block until the consumer
// takes the frame or the stream is closed, so a closed stream never leaks
// a goroutine inside the adapter.
type frameStream struct {
	ch   chan frameOutcome
	done chan struct{}
	once sync.Once
}

func newFrameStream() *frameStream {
	return &frameStream{
		ch:   make(chan frameOutcome),
		done: make(chan struct{}),
	}
}

// push is the DecodeFunc handed to the adapter.
func (s *frameStream) push(res *Decoded, err error) {
	select {
	case s.ch <- frameOutcome{res: res, err: err}:
	case <-s.done:
	}
}

func (s *frameStream) close() {
	s.once.Do(func() { close(s.done) })
}

// first consumes frames until the first successful decode. Misses are
// dropped; any other error goes to onErr and consumption continues.
// It returns false if the stream is closed or ctx ends first.
func (s *frameStream) first(ctx context.Context, onErr func(error)) (Decoded, bool) {
	for {
		select {
		case <-s.done:
			return Decoded{}, false
		case <-ctx.Done():
			return Decoded{}, false
		case o := <-s.ch:
			if o.err != nil && !IsTransientMiss(o.err) && onErr != nil {
				onErr(o.err)
			}
			if o.res != nil {
				return *o.res, true
			}
		}
	}
}
