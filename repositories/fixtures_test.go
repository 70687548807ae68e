package repositories

import (
	"database/sql"
	"testing"

	"github.com/Dosada05/round-submissions/db/dbtest"
	"github.com/Dosada05/round-submissions/models"
)

func intPtr(v int) *int { return &v }

// world is a small event with one current round, one past round and a few users.
type world struct {
	db           *sql.DB
	host         int
	participant  int
	fillIn       int
	stranger     int
	eventID      int
	currentRound int
	pastRound    int
}

func newWorld(t *testing.T, ev models.Event) world {
	t.Helper()

	db := dbtest.Open(t)
	w := world{db: db}
	w.host = dbtest.InsertUser(t, db, "host")
	w.participant = dbtest.InsertUser(t, db, "participant")
	w.fillIn = dbtest.InsertUser(t, db, "fillin")
	w.stranger = dbtest.InsertUser(t, db, "stranger")

	ev.HostUserID = w.host
	if ev.Name == "" {
		ev.Name = "Song Swap"
	}
	w.eventID = dbtest.InsertEvent(t, db, ev)
	w.pastRound = dbtest.InsertRound(t, db, w.eventID, 0)
	w.currentRound = dbtest.InsertRound(t, db, w.eventID, 1)
	dbtest.SetCurrentRound(t, db, w.eventID, w.currentRound)
	return w
}
