package broker

import (
	"errors"

	"github.com/rs/zerolog/log"
)

var ErrBrokerClosed = errors.New("broker closed")

// Message is a single change-feed delivery.
type Message struct {
	Subject string
	Data    []byte
}

type Handler func(msg Message)

// Subscription is satisfied by *nats.Subscription as well as the in-memory broker.
type Subscription interface {
	Unsubscribe() error
}

// Broker publishes and fans out change-feed messages.
type Broker interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler Handler) (Subscription, error)
	Close()
}

// Connect returns a NATS broker when url is set and reachable, and an
// in-process broker otherwise. The service keeps running either way; only
// cross-process fan-out is lost without NATS.
func Connect(url string) Broker {
	if url == "" {
		log.Info().Msg("NATS_URL not set, using in-memory change feed")
		return NewMemoryBroker()
	}

	b, err := NewNATSBroker(url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to connect to NATS, falling back to in-memory change feed")
		return NewMemoryBroker()
	}
	return b
}
