package models

type Round struct {
	ID      int `json:"id" db:"id"`
	EventID int `json:"event_id" db:"event_id"`
	Index   int `json:"index" db:"index"`
}

// Ordinal is the 1-based round number shown to people.
func (r Round) Ordinal() int {
	return r.Index + 1
}
