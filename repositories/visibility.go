package repositories

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/Dosada05/round-submissions/models"
)

// The helpers below are leaves of the visibility expression tree. Every caller
// combines them with sq.And / sq.Or so the whole decision runs as one query.

// publicEvent: the event is public and either published or showing changes live.
func publicEvent(alias string) sq.Sqlizer {
	return sq.And{
		sq.Eq{alias + ".is_public": true},
		sq.Or{
			sq.Eq{alias + ".status": string(models.EventStatusPublished)},
			sq.Eq{alias + ".are_changes_visible": true},
		},
	}
}

func hostedBy(alias string, userID int) sq.Sqlizer {
	return sq.Eq{alias + ".host_user_id": userID}
}

// participatesIn matches the participant or the fill-in, whoever holds the slot.
func participatesIn(alias string, userID int) sq.Sqlizer {
	return sq.Or{
		sq.Eq{alias + ".participant": userID},
		sq.Eq{alias + ".fill_in_participant": userID},
	}
}

// actsOn matches the party currently owning the slot's output: the participant
// while no fill-in is assigned, or the fill-in.
func actsOn(alias string, userID int) sq.Sqlizer {
	return sq.Or{
		sq.And{
			sq.Eq{alias + ".participant": userID},
			sq.Eq{alias + ".fill_in_participant": nil},
		},
		sq.Eq{alias + ".fill_in_participant": userID},
	}
}

// fileVisibility is the read rule for a file reached through e (the event whose
// initial file it is), rsse and es (a submission seeding it and that submission's
// event) or rssu and esu (the submission that submitted it and its event).
// Anonymous requesters only get the public branches.
func fileVisibility(requesterID *int) sq.Sqlizer {
	rule := sq.Or{
		publicEvent("e"),
		publicEvent("es"),
		publicEvent("esu"),
	}
	if requesterID == nil {
		return rule
	}
	uid := *requesterID
	return append(rule,
		hostedBy("e", uid),
		hostedBy("es", uid),
		hostedBy("esu", uid),
		participatesIn("rsse", uid),
		actsOn("rssu", uid),
	)
}

// submissionVisibility is the read rule for a submission rs inside event e.
func submissionVisibility(requesterID *int) sq.Sqlizer {
	rule := sq.Or{publicEvent("e")}
	if requesterID == nil {
		return rule
	}
	return append(rule,
		hostedBy("e", *requesterID),
		participatesIn("rs", *requesterID),
	)
}

// eventVisibility is the read rule for event e: public, hosted by the requester
// or holding a submission the requester takes part in.
func eventVisibility(requesterID *int) sq.Sqlizer {
	rule := sq.Or{publicEvent("e")}
	if requesterID == nil {
		return rule
	}
	uid := *requesterID
	takesPart := sq.Select("1").
		From("roundsubmissions rs").
		Where(sq.And{
			sq.Expr("rs.event_id = e.id"),
			participatesIn("rs", uid),
		})
	return append(rule,
		hostedBy("e", uid),
		sq.Expr("EXISTS (?)", takesPart),
	)
}

// submitGuard: the slot belongs to the event's current round and userID holds a
// role whose eligible statuses include the slot's status.
func submitGuard(submissionID, userID int) sq.Sqlizer {
	roles := sq.Or{}
	for _, role := range models.ActingRoles {
		roles = append(roles, roleHolds("rs", role, userID))
	}
	return sq.And{
		sq.Eq{"rs.id": submissionID},
		sq.Expr("rs.round_id = e.current_round"),
		roles,
	}
}

func roleHolds(alias string, role models.SubmissionRole, userID int) sq.Sqlizer {
	statuses := sq.Eq{alias + ".status": statusStrings(models.EligibleStatuses(models.ActionSubmitFile, role))}
	switch role {
	case models.RoleParticipant:
		return sq.And{
			sq.Eq{alias + ".participant": userID},
			sq.Eq{alias + ".fill_in_participant": nil},
			statuses,
		}
	case models.RoleFillIn:
		return sq.And{
			sq.Eq{alias + ".fill_in_participant": userID},
			statuses,
		}
	}
	return sq.Expr("1 = 0")
}
