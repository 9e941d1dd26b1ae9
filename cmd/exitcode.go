package cmd

import (
	"errors"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// Process exit codes.
const (
	ExitOK                       = 0
	ExitUnexpected               = 1
	ExitNoGitRepo                = 2
	ExitUncommittedChanges       = 3
	ExitInvalidBranchNameSetting = 4
	ExitNoVersionFile            = 5
	ExitVersionDecrement         = 6
	ExitBranchAlreadyExists      = 7
	ExitUserNotConfigured        = 8
	ExitDetachedHead             = 9
	ExitInvalidVersionIncrement  = 10
	ExitMergeConflict            = 11
	ExitUsage                    = 64
)

// exitCodes maps failure kinds to exit codes. The first match wins.
var exitCodes = []struct {
	err  error
	code int
}{
	{domain.ErrNoGitRepo, ExitNoGitRepo},
	{domain.ErrUncommittedChanges, ExitUncommittedChanges},
	{domain.ErrInvalidBranchNameSetting, ExitInvalidBranchNameSetting},
	{domain.ErrNoVersionFile, ExitNoVersionFile},
	{domain.ErrVersionDecrement, ExitVersionDecrement},
	{domain.ErrBranchAlreadyExists, ExitBranchAlreadyExists},
	{domain.ErrUserNotConfigured, ExitUserNotConfigured},
	{domain.ErrDetachedHead, ExitDetachedHead},
	{domain.ErrInvalidVersionIncrement, ExitInvalidVersionIncrement},
	{domain.ErrMergeConflict, ExitMergeConflict},
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsage
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ExitUnexpected
}

// UsageError reports invalid arguments or flags.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// reportedError marks an error whose diagnostic line was already written.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

func isReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
