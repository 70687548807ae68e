package models

// EventStatus представляет статусы события, соответствующие ENUM в БД.
type EventStatus string

const (
	EventStatusPlanned   EventStatus = "Planned"
	EventStatusStarted   EventStatus = "Started"
	EventStatusPublished EventStatus = "Published"
	EventStatusCompleted EventStatus = "Completed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPlanned, EventStatusStarted, EventStatusPublished, EventStatusCompleted:
		return true
	}
	return false
}

// Event is a hosted round-based session.
type Event struct {
	ID                int         `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	Status            EventStatus `json:"status" db:"status"`
	IsPublic          bool        `json:"is_public" db:"is_public"`
	AreChangesVisible bool        `json:"are_changes_visible" db:"are_changes_visible"`
	HostUserID        int         `json:"host_user_id" db:"host_user_id"`
	CurrentRoundID    *int        `json:"current_round_id,omitempty" db:"current_round"`
	InitialFileID     *int        `json:"initial_file_id,omitempty" db:"initial_file"`
}

// PubliclyVisible reports whether anyone, including anonymous users, may see the event's files.
func (e Event) PubliclyVisible() bool {
	return e.IsPublic && (e.Status == EventStatusPublished || e.AreChangesVisible)
}
