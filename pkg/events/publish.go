package events

import (
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// PublisherManager distributes events to a set of watermill Publishers.
// You "subscribe" a publisher to a topic; published events get distributed
// to all publishers on the topic they were subscribed with.
//
// The manager keeps a sequence number for outgoing messages, in the order
// they are handled by Publish.
type PublisherManager struct {
	publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mu             sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		publishers: make(map[string][]message.Publisher),
	}
}

func (s *PublisherManager) SubscribePublisher(topic string, pub message.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers[topic] = append(s.publishers[topic], pub)
}

// Publish distributes an event to all publishers across all topics,
// serializing it to JSON.
func (s *PublisherManager) Publish(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := MarshalEvent(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", s.sequenceNumber))
	msg.Metadata.Set("event_type", string(e.Type()))
	s.sequenceNumber++

	for topic, pubs := range s.publishers {
		for _, pub := range pubs {
			if err := pub.Publish(topic, msg); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish")
			}
		}
	}

	return nil
}

// PublishEvent implements EventSink, so a PublisherManager can be attached
// to a context and fan events out to watermill subscribers.
func (s *PublisherManager) PublishEvent(e Event) error {
	return s.Publish(e)
}

var _ EventSink = (*PublisherManager)(nil)
