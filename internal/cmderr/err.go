// Package cmderr classifies the errors that can reach main into the two
// classes this tool distinguishes for exit-code and usage-printing purposes.
package cmderr

import (
	"errors"
	"fmt"
)

// UsageErr marks a configuration error: bad flags, a missing required
// flag, a malformed integer. Execute prints the command's usage string for
// these, and for any other error that is not a RuntimeErr (see NeedsUsage).
type UsageErr struct {
	Err error
}

func (u UsageErr) Error() string { return u.Err.Error() }
func (u UsageErr) Unwrap() error { return u.Err }
func (u UsageErr) Cause() error  { return u.Err }

// RuntimeErr marks a capture error: the interface couldn't be opened, or
// the capture loop died mid-run. No usage string is printed for these --
// the flags were fine, the environment wasn't.
type RuntimeErr struct {
	Err error
}

func (r RuntimeErr) Error() string { return r.Err.Error() }
func (r RuntimeErr) Unwrap() error { return r.Err }
func (r RuntimeErr) Cause() error  { return r.Err }

// ExitCode returns the process exit code for err: 0 only for a nil err
// (clean shutdown), 1 for every UsageErr or RuntimeErr.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// NeedsUsage reports whether main should print the command's usage string
// alongside err's message. Usage is printed for everything except a
// RuntimeErr: flag-parsing errors pflag itself returns (unknown flag,
// missing value, duplicate flag) are just as much a usage problem as our
// own UsageErr, so they default to "print usage" too rather than requiring
// every call site to wrap them.
func NeedsUsage(err error) bool {
	var r RuntimeErr
	return !errors.As(err, &r)
}

// Usagef builds a UsageErr from a formatted message, the common case for
// flag validation failures.
func Usagef(format string, args ...interface{}) UsageErr {
	return UsageErr{Err: fmt.Errorf(format, args...)}
}
