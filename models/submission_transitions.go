package models

// SubmissionRole is the part a user plays on a submission slot.
type SubmissionRole string

const (
	RoleNone        SubmissionRole = ""
	RoleParticipant SubmissionRole = "participant"
	RoleFillIn      SubmissionRole = "fill_in"
)

// SubmissionAction is something an actor does to a slot.
type SubmissionAction string

const (
	ActionSubmitFile SubmissionAction = "submit_file"
)

// ActingRoles lists the roles that can perform actions, in guard order.
var ActingRoles = []SubmissionRole{RoleParticipant, RoleFillIn}

type transitionKey struct {
	from RoundSubmissionStatus
	role SubmissionRole
}

// submissionTransitions: action -> (status, role) -> next status.
// Other transitions belong to the event scheduler and are not listed here.
var submissionTransitions = map[SubmissionAction]map[transitionKey]RoundSubmissionStatus{
	ActionSubmitFile: {
		{SubmissionStatusStarted, RoleParticipant}:   SubmissionStatusSubmitted,
		{SubmissionStatusSubmitted, RoleParticipant}: SubmissionStatusSubmitted,
		{SubmissionStatusRefuted, RoleParticipant}:   SubmissionStatusSubmitted,
		{SubmissionStatusFillInAquired, RoleFillIn}:  SubmissionStatusSubmitted,
		{SubmissionStatusSubmitted, RoleFillIn}:      SubmissionStatusSubmitted,
		{SubmissionStatusRefuted, RoleFillIn}:        SubmissionStatusSubmitted,
	},
}

// NextStatus returns the status a slot moves to when role performs action from status from.
func NextStatus(action SubmissionAction, from RoundSubmissionStatus, role SubmissionRole) (RoundSubmissionStatus, bool) {
	if role == RoleNone {
		return "", false
	}
	next, ok := submissionTransitions[action][transitionKey{from: from, role: role}]
	return next, ok
}

// EligibleStatuses returns, in a stable order, every status from which role may perform action.
func EligibleStatuses(action SubmissionAction, role SubmissionRole) []RoundSubmissionStatus {
	var out []RoundSubmissionStatus
	for _, st := range statusOrder {
		if _, ok := NextStatus(action, st, role); ok {
			out = append(out, st)
		}
	}
	return out
}

var statusOrder = []RoundSubmissionStatus{
	SubmissionStatusPlanned,
	SubmissionStatusStarted,
	SubmissionStatusFillInRequested,
	SubmissionStatusFillInAquired,
	SubmissionStatusSubmitted,
	SubmissionStatusCompleted,
	SubmissionStatusSkipped,
	SubmissionStatusRefuted,
}
