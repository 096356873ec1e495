package login

import "fmt"

// State is a phase of one login attempt.
type State int

const (
	Idle State = iota
	Authenticating
	Denied
	Granted
	OwnershipAcquired
	Executing
	OwnershipReleased
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	case OwnershipAcquired:
		return "ownership-acquired"
	case Executing:
		return "executing"
	case OwnershipReleased:
		return "ownership-released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Status int

const (
	StatusDenied Status = iota + 1
	StatusFailed
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusDenied:
		return "denied"
	case StatusFailed:
		return "failed"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failure stages reported in Result.Stage.
const (
	StageOwnership = "ownership"
	StageLaunch    = "launch"
)

// Result is the outcome of one attempt.
type Result struct {
	Status Status
	// Reason is the console text for a denial.
	Reason string
	// Stage and Detail describe a failure after authentication.
	Stage  string
	Detail string
	// ExitCode and PID describe a completed session.
	ExitCode int
	PID      int
	Err      error
}

func (r Result) String() string {
	switch r.Status {
	case StatusDenied:
		return "denied: " + r.Reason
	case StatusFailed:
		return fmt.Sprintf("failed at %s: %s", r.Stage, r.Detail)
	case StatusCompleted:
		return fmt.Sprintf("completed: pid %d exit %d", r.PID, r.ExitCode)
	default:
		return r.Status.String()
	}
}
