package store

import (
	"time"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
)

// EventStore — коллекция событий города.
type EventStore struct {
	*Resource[models.Event]
}

// NewEventStore создаёт хранилище событий. Статус события вычисляется
// относительно nowFn в момент нормализации записи.
func NewEventStore(client *api.Client, nowFn func() time.Time) *EventStore {
	if nowFn == nil {
		nowFn = time.Now
	}

	return &EventStore{
		Resource: newResource(client, "events", "/events", "villeId",
			func(rec map[string]any) (models.Event, bool) {
				return mapper.Event(rec, nowFn())
			}),
	}
}

// Upcoming отбирает события со статусом Upcoming в порядке коллекции.
func (s *EventStore) Upcoming() []models.Event {
	var out []models.Event
	for _, item := range s.Items() {
		if item.Status == models.EventUpcoming {
			out = append(out, item)
		}
	}

	return out
}
