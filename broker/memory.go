package broker

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const memoryQueueSize = 256

// MemoryBroker is an in-process change feed used when NATS is not configured.
// Each subscription gets its own queue and goroutine, so a slow handler
// never blocks publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

type memorySubscription struct {
	broker  *MemoryBroker
	subject string
	queue   chan Message
	once    sync.Once
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[*memorySubscription]struct{}),
	}
}

func (b *MemoryBroker) Publish(subject string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	for sub := range b.subs[subject] {
		payload := make([]byte, len(data))
		copy(payload, data)
		select {
		case sub.queue <- Message{Subject: subject, Data: payload}:
		default:
			log.Warn().Str("subject", subject).Msg("subscriber queue full, dropping message")
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(subject string, handler Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	sub := &memorySubscription{
		broker:  b,
		subject: subject,
		queue:   make(chan Message, memoryQueueSize),
	}
	if b.subs[subject] == nil {
		b.subs[subject] = make(map[*memorySubscription]struct{})
	}
	b.subs[subject][sub] = struct{}{}

	go func() {
		for msg := range sub.queue {
			handler(msg)
		}
	}()

	return sub, nil
}

func (b *MemoryBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for subject, subs := range b.subs {
		for sub := range subs {
			sub.stop()
		}
		delete(b.subs, subject)
	}
}

func (s *memorySubscription) Unsubscribe() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	if subs, ok := s.broker.subs[s.subject]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.broker.subs, s.subject)
		}
	}
	s.stop()
	return nil
}

func (s *memorySubscription) stop() {
	s.once.Do(func() { close(s.queue) })
}
