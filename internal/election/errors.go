package election

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them, according to its Kind.
var (
	ErrNotRegistered = errors.New("voter is not registered")
	ErrNotACandidate = errors.New("not a candidate")
	ErrAlreadyVoted  = errors.New("voter already voted")
	ErrWrongParty    = errors.New("candidate is in another party")
)

// ErrorKind enumerates the domain errors a command can fail with
type ErrorKind uint8

const (
	NotRegistered ErrorKind = iota + 1
	NotACandidate
	AlreadyVoted
	WrongParty
)

// String returns the string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case NotRegistered:
		return "NotRegistered"
	case NotACandidate:
		return "NotACandidate"
	case AlreadyVoted:
		return "AlreadyVoted"
	case WrongParty:
		return "WrongParty"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case NotRegistered:
		return ErrNotRegistered
	case NotACandidate:
		return ErrNotACandidate
	case AlreadyVoted:
		return ErrAlreadyVoted
	case WrongParty:
		return ErrWrongParty
	default:
		return nil
	}
}

// Error is a recoverable, per-command failure. Name is the voter or candidate the command referred to; Party is set
// only for WrongParty and holds the candidate's party.
type Error struct {
	Kind  ErrorKind
	Name  string
	Party string
}

func (e *Error) Error() string {
	return e.LogMessage()
}

// LogMessage renders the line written to the official record for this error
func (e *Error) LogMessage() string {
	switch e.Kind {
	case NotRegistered:
		return e.Name + " is not registered"
	case NotACandidate:
		return e.Name + " is not a candidate"
	case AlreadyVoted:
		return e.Name + " already voted"
	case WrongParty:
		return e.Name + " cannot vote for a " + e.Party
	default:
		return fmt.Sprintf("%s: unknown election error %d", e.Name, e.Kind)
	}
}

// Is reports whether target is the sentinel for e's Kind
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// AsError extracts the domain error from err, if there is one
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsDomainError reports whether err is a recoverable election error rather than an infrastructure failure
func IsDomainError(err error) bool {
	_, ok := AsError(err)
	return ok
}

func notRegistered(name string) *Error {
	return &Error{Kind: NotRegistered, Name: name}
}

func notACandidate(name string) *Error {
	return &Error{Kind: NotACandidate, Name: name}
}

func alreadyVoted(voter string) *Error {
	return &Error{Kind: AlreadyVoted, Name: voter}
}

func wrongParty(voter, candidatesParty string) *Error {
	return &Error{Kind: WrongParty, Name: voter, Party: candidatesParty}
}
