package session

import "errors"

// Status is the lifecycle state of a tutoring session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ActorRole is the caller's role within a given session.
type ActorRole int

const (
	ActorNone ActorRole = iota
	ActorTeacher
	ActorStudent
)

var (
	// errors
	ErrNotFound          = errors.New("session not found")
	ErrForbidden         = errors.New("permission denied")
	ErrNotParticipant    = errors.New("unauthorized to perform this action")
	ErrStatusForbidden   = errors.New("status not allowed for this role")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// teacher drives the request lifecycle; student may only back out.
var allowedTargets = map[ActorRole][]Status{
	ActorTeacher: {StatusAccepted, StatusRejected, StatusCompleted},
	ActorStudent: {StatusCancelled},
}

// Transition decides whether `role` may move a session from `current` to
// `target`. Role gating is checked before transition validity so that a
// participant reaching for a status outside their role always gets
// ErrStatusForbidden, regardless of the session's current state.
//
// Rules:
//   - teacher: pending -> accepted | rejected, accepted -> completed
//   - student: any non-terminal -> cancelled
//   - terminal states allow only a same-value no-op
func Transition(role ActorRole, current, target Status) error {
	if role == ActorNone {
		return ErrNotParticipant
	}

	var roleOK bool
	for _, st := range allowedTargets[role] {
		if st == target {
			roleOK = true
			break
		}
	}
	if !roleOK {
		return ErrStatusForbidden
	}

	if current.Terminal() {
		if target == current {
			return nil // no-op update
		}
		return ErrInvalidTransition
	}

	switch target {
	case StatusAccepted, StatusRejected:
		if current != StatusPending {
			return ErrInvalidTransition
		}
	case StatusCompleted:
		if current != StatusAccepted {
			return ErrInvalidTransition
		}
	case StatusCancelled:
		// any non-terminal state
	default:
		return ErrInvalidTransition
	}
	return nil
}
