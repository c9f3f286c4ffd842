package apperror

import "errors"

var (
	ErrMatchFinished      = errors.New("match is already finished")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownPlayer      = errors.New("unknown player side")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrMatchCancelled     = errors.New("match is cancelled")
)
