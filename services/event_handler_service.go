package services

import (
	"encoding/json"
	"sync"
	"time"

	"notepin/notepin/broker"
	"notepin/notepin/database"
	"notepin/notepin/models"

	"github.com/rs/zerolog/log"
)

const dispatchBatchSize = 100

type EventHandlerServiceInterface interface {
	Start()
	Stop()
	DispatchPending() (int, error)
}

// EventHandlerService moves outbox rows onto the change feed.
type EventHandlerService struct {
	db       *database.Database
	broker   broker.Broker
	interval time.Duration

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

func NewEventHandlerService(db *database.Database, b broker.Broker, interval time.Duration) *EventHandlerService {
	if interval <= 0 {
		interval = time.Second
	}
	return &EventHandlerService{
		db:       db,
		broker:   b,
		interval: interval,
	}
}

func (s *EventHandlerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stopChan, s.done)
	log.Info().Dur("interval", s.interval).Msg("event dispatcher started")
}

func (s *EventHandlerService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	log.Info().Msg("event dispatcher stopped")
}

func (s *EventHandlerService) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.DispatchPending(); err != nil {
				log.Error().Err(err).Msg("error dispatching events")
			}
		}
	}
}

// DispatchPending publishes undispatched events oldest first and marks each
// one dispatched. It stops at the first publish failure so ordering is kept
// for the next pass.
func (s *EventHandlerService) DispatchPending() (int, error) {
	dispatched := 0
	for {
		var events []models.Event
		if err := s.db.DB.Where("dispatched = ?", false).
			Order("timestamp ASC").
			Limit(dispatchBatchSize).
			Find(&events).Error; err != nil {
			return dispatched, err
		}

		if len(events) == 0 {
			return dispatched, nil
		}

		log.Debug().Int("count", len(events)).Msg("found pending events to process")

		for _, event := range events {
			if err := s.dispatchEvent(event); err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Msg("error dispatching event")
				return dispatched, err
			}
			dispatched++
			log.Debug().
				Str("event_id", event.ID.String()).
				Str("type", event.Event).
				Str("entity", event.Entity).
				Msg("dispatched event")
		}

		if len(events) < dispatchBatchSize {
			return dispatched, nil
		}
	}
}

func (s *EventHandlerService) dispatchEvent(event models.Event) error {
	dataMap := event.DataMap()

	eventPayload := map[string]interface{}{
		"event_id":  event.ID.String(),
		"timestamp": event.Timestamp,
		"type":      event.Event,
		"entity":    event.Entity,
		"data":      dataMap,
	}
	if noteID, ok := dataMap["note_id"]; ok {
		eventPayload["note_id"] = noteID
	}

	fullPayload := map[string]interface{}{
		"type":    event.Event,
		"payload": eventPayload,
	}

	jsonData, err := json.Marshal(fullPayload)
	if err != nil {
		return err
	}

	if err := s.broker.Publish(broker.SubjectForEntity(event.Entity), jsonData); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.db.DB.Model(&models.Event{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
		"dispatched":    true,
		"dispatched_at": now,
		"status":        models.EventStatusCompleted,
	}).Error
}
