package event

import "time"

const (
	TypeChange    = "change"
	TypeLostState = "lost_state"
)

// Notification is a daemon-level event derived from the watch session:
// either a translated file change or a lost-state signal telling consumers
// to re-derive their tracked state.
type Notification struct {
	EventType  string
	Kind       string
	Path       string
	OccurredAt time.Time
}

func NewChangeNotification(kind, path string) Notification {
	return Notification{
		EventType:  TypeChange,
		Kind:       kind,
		Path:       path,
		OccurredAt: time.Now().UTC(),
	}
}

func NewLostStateNotification() Notification {
	return Notification{
		EventType:  TypeLostState,
		OccurredAt: time.Now().UTC(),
	}
}

func (n Notification) Type() string {
	return n.EventType
}

func (n Notification) Timestamp() time.Time {
	return n.OccurredAt
}
