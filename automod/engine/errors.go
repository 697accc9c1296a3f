package engine

import (
	"errors"
	"fmt"
)

var (
	// actor failed the access gate for a command or macro
	ErrPermissionDenied = errors.New("permission denied")
	// the bot account lacks group admin rights needed for the action
	ErrCapabilityMissing = errors.New("bot is not a group admin")
	// no quoted message or contextual participant to act on
	ErrTargetResolution = errors.New("no target message or participant")
	ErrUnknownCommand   = errors.New("unknown command")
	// malformed command arguments
	ErrUsage = errors.New("invalid command usage")
)

// Failure of a transport, media, or price call. Recovered at the handler boundary.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collabErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Op: op, Err: err}
}

// short label for metrics and log levels
func errorKind(err error) string {
	var ce *CollaboratorError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPermissionDenied):
		return "denied"
	case errors.Is(err, ErrCapabilityMissing):
		return "capability"
	case errors.Is(err, ErrTargetResolution):
		return "target"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown"
	case errors.Is(err, ErrUsage):
		return "usage"
	case errors.As(err, &ce):
		return "collaborator"
	default:
		return "internal"
	}
}

// expected outcomes of user input, as opposed to failures worth alerting on
func isUserError(err error) bool {
	switch errorKind(err) {
	case "denied", "capability", "target", "unknown", "usage":
		return true
	}
	return false
}

// an optional collaborator (media, prices) was not configured
var errMissingCollaborator = errors.New("collaborator not configured")
