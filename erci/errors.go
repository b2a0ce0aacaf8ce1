package erci

import "fmt"

// ResponseError reports a reply the client cannot use as an answer: a
// mismatched sequence number in any response, or a command or payload the
// decoder does not accept (exceptions.py's ResponseError). A COMMAND_RESULT
// whose code is not SUCCESS is not a ResponseError: it is returned as a
// *CommandResult with Success false and a nil error.
type ResponseError struct {
	Command Cmd
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("erci: %s: %s", e.Command, e.Message)
}

// TimeoutError reports that no reply arrived within the configured
// window, per exceptions.py's TimeoutError.
type TimeoutError struct {
	Command Cmd
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("erci: timed out waiting for reply to %s", e.Command)
}

// ErrResourceLocked is returned by a Client command method when another
// command is already in flight. Unlike PPL's blocking query mutex, ERCI's source
// client checks queryLock.locked() before attempting to acquire and fails
// immediately rather than queuing (exceptions.py's ResourceLocked).
type ErrResourceLocked struct{}

func (e *ErrResourceLocked) Error() string {
	return "erci: a command is already in flight on this client"
}
