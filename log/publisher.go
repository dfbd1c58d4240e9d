package log

import (
	"bytes"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64

// Publisher is an [io.Writer] that splits written bytes into lines and fans
// each line out to subscribers.
//
// Log handlers write whole records, but child process output arrives in
// arbitrary chunks, so a trailing partial line is held back until its
// newline arrives or the Publisher is closed. Lines are delivered without
// their line ending.
//
// Each subscriber has a bounded queue: when it is full the oldest line is
// dropped, so Write never blocks on a slow reader. Safe for concurrent use.
//
// Create instances with [NewPublisher].
type Publisher struct {
	subscribers []*Subscription
	partial     []byte
	bufSize     int
	mu          sync.Mutex
	closed      bool
}

// NewPublisher creates a [Publisher] with the given options.
// The default queue length is 64 lines.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PublisherOption configures a [Publisher].
type PublisherOption func(*Publisher)

// WithBufferSize sets how many lines each new subscription queues.
// Values less than 1 are clamped to 1.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = max(n, 1)
	}
}

// Write delivers every complete line in b, prefixed by any partial line left
// over from earlier writes. Write always returns len(b), nil.
func (p *Publisher) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return len(b), nil
	}

	p.partial = append(p.partial, b...)

	for {
		i := bytes.IndexByte(p.partial, '\n')
		if i < 0 {
			break
		}

		p.publish(bytes.TrimSuffix(p.partial[:i], []byte{'\r'}))
		p.partial = p.partial[i+1:]
	}

	if len(p.partial) == 0 {
		p.partial = nil
	}

	return len(b), nil
}

// publish copies line and queues it on every live subscription, dropping
// closed ones. Callers hold p.mu.
func (p *Publisher) publish(line []byte) {
	entry := bytes.Clone(line)
	if entry == nil {
		entry = []byte{}
	}

	alive := p.subscribers[:0]
	for _, sub := range p.subscribers {
		if sub.closed.Load() {
			close(sub.ch)
			continue
		}

		select {
		case sub.ch <- entry:
		default:
			<-sub.ch

			sub.ch <- entry
		}

		alive = append(alive, sub)
	}

	clear(p.subscribers[len(alive):])
	p.subscribers = alive
}

// Subscribe creates and registers a new [Subscription]. If the Publisher is
// already closed the returned subscription's channel is immediately closed.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := &Subscription{
		ch: make(chan []byte, p.bufSize),
	}

	if p.closed {
		close(sub.ch)
		return sub
	}

	p.subscribers = append(p.subscribers, sub)

	return sub
}

// Close delivers any pending partial line, then closes every subscription
// channel. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	if len(p.partial) > 0 {
		p.publish(p.partial)
		p.partial = nil
	}

	p.closed = true
	for _, sub := range p.subscribers {
		close(sub.ch)
	}

	p.subscribers = nil

	return nil
}

// Subscription receives lines from a [Publisher].
type Subscription struct {
	ch     chan []byte
	closed atomic.Bool
}

// C returns the channel that delivers lines. It is closed once the
// Publisher closes, or on the first publish after [Subscription.Close].
// Callers must not modify the returned byte slices.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Close detaches the subscription. Idempotent.
func (s *Subscription) Close() {
	s.closed.Store(true)
}
