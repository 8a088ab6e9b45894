package publishers

import (
	"time"

	"github.com/Adda-Baaj/gink-client/internal/domain"
)

// Event is the payload published downstream for every new live update.
type Event struct {
	// Source is the live URL the update was read from.
	Source      string            `json:"source"`
	Update      domain.LiveUpdate `json:"update"`
	CollectedAt time.Time         `json:"collected_at"`
}

// NewEvent stamps an update with the collection time.
func NewEvent(source string, update domain.LiveUpdate) Event {
	return Event{
		Source:      source,
		Update:      update,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"imei":   e.Update.IMEI.String(),
		"source": e.Source,
	}
}
