package util

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrAnswerNotFound        = errors.New("answer not found")
	ErrLocationNotFound      = errors.New("location not found")
	ErrAnswerExists          = errors.New("answer already submitted for this location")
	ErrAnswerAlreadyModified = errors.New("answer has already been modified")
	ErrEditWindowClosed      = errors.New("question is no longer open for answers")
	ErrEvaluatorUnavailable  = errors.New("evaluator unavailable")
	ErrSweepInProgress       = errors.New("answer sweep already running")
	ErrSweepLockLost         = errors.New("answer sweep lock lost")
)
