package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"notepin/notepin/broker"
	"notepin/notepin/database"
	"notepin/notepin/middleware"
	"notepin/notepin/models"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type LiveQueryServiceInterface interface {
	Subscribe(query models.LiveQuery) (*LiveSubscription, error)
	Unsubscribe(id string) error
	Refresh()
	Start(b broker.Broker) error
	Stop()
	Count() int
}

// LiveResult is one evaluation of a subscribed query.
type LiveResult struct {
	SubscriptionID string
	Query          models.LiveQuery
	Data           json.RawMessage
}

// LiveSubscription receives a result whenever its query's output changes.
// Only the newest undelivered result is kept.
type LiveSubscription struct {
	ID    string
	Query models.LiveQuery

	results chan LiveResult
	done    chan struct{}
	once    sync.Once

	// guarded by LiveQueryService.evalMu
	hash    uint64
	hasHash bool
}

func (s *LiveSubscription) Results() <-chan LiveResult {
	return s.results
}

// Done is closed once the subscription is removed.
func (s *LiveSubscription) Done() <-chan struct{} {
	return s.done
}

func (s *LiveSubscription) offer(result LiveResult) {
	for {
		select {
		case s.results <- result:
			return
		default:
		}
		// drop the stale result and retry
		select {
		case <-s.results:
		default:
		}
	}
}

func (s *LiveSubscription) close() {
	s.once.Do(func() { close(s.done) })
}

// LiveQueryService re-evaluates subscribed queries on every change-feed
// message. Subscriptions with the same key share a single evaluation.
type LiveQueryService struct {
	db    *database.Database
	notes NoteServiceInterface

	mu   sync.Mutex
	subs map[string]*LiveSubscription

	// serializes evaluation and subscription registration
	evalMu sync.Mutex

	trigger  chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	feed     broker.Subscription
}

func NewLiveQueryService(db *database.Database, notes NoteServiceInterface) *LiveQueryService {
	return &LiveQueryService{
		db:      db,
		notes:   notes,
		subs:    make(map[string]*LiveSubscription),
		trigger: make(chan struct{}, 1),
	}
}

func validateQuery(query models.LiveQuery) error {
	switch query.Query {
	case models.QueryList, models.QueryTrash:
		return nil
	case models.QueryNote:
		if query.ID == "" {
			return fmt.Errorf("%w: note query needs an id", ErrInvalidQuery)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown query %q", ErrInvalidQuery, query.Query)
	}
}

// Subscribe registers query and delivers its current result before returning.
func (s *LiveQueryService) Subscribe(query models.LiveQuery) (*LiveSubscription, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	sub := &LiveSubscription{
		ID:      uuid.NewString(),
		Query:   query,
		results: make(chan LiveResult, 1),
		done:    make(chan struct{}),
	}

	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	data, err := s.evaluate(query)
	if err != nil {
		return nil, err
	}
	sub.hash = xxhash.Sum64(data)
	sub.hasHash = true
	sub.offer(LiveResult{SubscriptionID: sub.ID, Query: query, Data: data})

	s.mu.Lock()
	s.subs[sub.ID] = sub
	count := len(s.subs)
	s.mu.Unlock()

	middleware.UpdateLiveSubscriptions(count)
	middleware.TrackLiveResult(query.Query)
	log.Debug().Str("subscription_id", sub.ID).Str("key", query.Key()).Msg("live query subscribed")
	return sub, nil
}

func (s *LiveQueryService) Unsubscribe(id string) error {
	s.mu.Lock()
	sub, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
	}
	count := len(s.subs)
	s.mu.Unlock()

	if !ok {
		return ErrSubscriptionNotFound
	}

	sub.close()
	middleware.UpdateLiveSubscriptions(count)
	log.Debug().Str("subscription_id", id).Msg("live query unsubscribed")
	return nil
}

func (s *LiveQueryService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Refresh re-evaluates every subscribed query once and pushes results whose
// fingerprint changed.
func (s *LiveQueryService) Refresh() {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	groups := make(map[string][]*LiveSubscription)
	s.mu.Lock()
	for _, sub := range s.subs {
		key := sub.Query.Key()
		groups[key] = append(groups[key], sub)
	}
	s.mu.Unlock()

	for key, group := range groups {
		query := group[0].Query
		data, err := s.evaluate(query)
		if err != nil {
			middleware.TrackError("live_query")
			log.Error().Err(err).Str("key", key).Msg("failed to evaluate live query")
			continue
		}

		hash := xxhash.Sum64(data)
		for _, sub := range group {
			if sub.hasHash && sub.hash == hash {
				continue
			}
			sub.hash = hash
			sub.hasHash = true
			sub.offer(LiveResult{SubscriptionID: sub.ID, Query: sub.Query, Data: data})
			middleware.TrackLiveResult(query.Query)
		}
	}
}

func (s *LiveQueryService) evaluate(query models.LiveQuery) (json.RawMessage, error) {
	var result interface{}

	switch query.Query {
	case models.QueryList:
		notes, err := s.notes.ListNotes(s.db, models.NoteFilter{Search: query.Search, PinnedOnly: query.Pinned})
		if err != nil {
			return nil, err
		}
		result = notes
	case models.QueryTrash:
		notes, err := s.notes.ListTrashedNotes(s.db)
		if err != nil {
			return nil, err
		}
		result = notes
	case models.QueryNote:
		note, err := s.notes.GetNoteById(s.db, query.ID)
		switch {
		case errors.Is(err, ErrNoteNotFound):
			result = models.NoteLookup{Found: false}
		case err != nil:
			return nil, err
		default:
			result = models.NoteLookup{Found: true, Note: &note}
		}
	default:
		return nil, ErrInvalidQuery
	}

	return json.Marshal(result)
}

// Start listens to the change feed and refreshes subscriptions after each
// message. Bursts of messages collapse into one refresh.
func (s *LiveQueryService) Start(b broker.Broker) error {
	s.mu.Lock()
	if s.stopChan != nil {
		s.mu.Unlock()
		return nil
	}
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	feed, err := b.Subscribe(broker.NoteEventsSubject, func(broker.Message) {
		s.notify()
	})
	if err != nil {
		s.mu.Lock()
		s.stopChan, s.done = nil, nil
		s.mu.Unlock()
		return fmt.Errorf("subscribe to change feed: %w", err)
	}
	s.feed = feed

	go s.run(stop, done)
	log.Info().Str("subject", broker.NoteEventsSubject).Msg("live query service started")
	return nil
}

func (s *LiveQueryService) notify() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *LiveQueryService) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-s.trigger:
			s.Refresh()
		}
	}
}

// Stop detaches from the change feed and closes every subscription.
func (s *LiveQueryService) Stop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.done
	s.stopChan, s.done = nil, nil
	subs := s.subs
	s.subs = make(map[string]*LiveSubscription)
	s.mu.Unlock()

	if s.feed != nil {
		if err := s.feed.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to detach from change feed")
		}
		s.feed = nil
	}

	if stop != nil {
		close(stop)
		<-done
	}

	for _, sub := range subs {
		sub.close()
	}
	middleware.UpdateLiveSubscriptions(0)
	log.Info().Msg("live query service stopped")
}
