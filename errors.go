package jsonapi

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType         = errors.New("no model is defined for the requested resource type")
	ErrUnknownRelationship = errors.New("the relationship is not defined for the record's type")
	ErrNotFound            = errors.New("the requested record could not be found")
	ErrTransport           = errors.New("the request could not be completed")
	ErrBadKind             = errors.New("relationship kind is not belongs-to or has-many")
	ErrBadDocument         = errors.New("the document is malformed")
)

// Error is a typed error returned by functions in the jsonapi library as
// their error value. It contains both a message explaining what happened as
// well as one or more error values it considers to be its causes. Error is
// compatible with the use of errors.Is() - calling errors.Is on some Error
// value err along with any value of error it holds as one of its causes will
// return true. This allows for easy examination and failure condition checking
// without needing to resort to manual typecasting.
//
// If Error has at least one cause defined, the result of calling Error.Error()
// will be its primary message with the result of calling Error() on its first
// cause appended to it.
//
// Error should not be used directly; call NewError to create one.
type Error struct {
	msg   string
	cause []error
}

// Error returns the message defined for the Error. If a message was defined
// for it when created, that message is returned, concatenated with the result
// of calling Error() on its first cause if one is defined. If no message or an
// empty message was defined for it when created, but there is at least one
// cause defined for it, the result of calling Error() on the first cause is
// returned. If no message is defined and no causes are defined, returns the
// empty string.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}

	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

// Unwrap returns the causes of Error. The return value will be nil if no
// causes were defined for it.
//
// This function is for interaction with the errors API. It will only be used
// in Go version 1.20 and later; 1.19 will default to use of Error.Is when
// calling errors.Is on the Error.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether Error either Is itself the given target error, or one of
// its causes is.
//
// This function is for interaction with the errors API.
func (e Error) Is(target error) bool {
	// is the target error itself?
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg {
			if len(e.cause) == len(errTarget.cause) {
				allCausesEqual := true
				for i := range e.cause {
					if e.cause[i] != errTarget.cause[i] {
						allCausesEqual = false
						break
					}
				}
				if allCausesEqual {
					return true
				}
			}
		}
	}

	// otherwise, check if any cause equals target. Go 1.19 does not support
	// wrapping multiple errors, so causes that are themselves of type Error
	// get the full recursive check.
	for i := range e.cause {
		if sErr, ok := e.cause[i].(Error); ok {
			if sErr.Is(target) {
				return true
			}
		} else if e.cause[i] == target {
			return true
		}
	}
	return false
}

// NewError creates a new Error with the given message, along with any errors
// it should wrap as its causes. Providing cause errors is not required, but
// will cause it to return true when it is checked against that error via a
// call to errors.Is.
func NewError(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WrapTransportError creates a new Error that wraps the given error as a
// cause and automatically adds ErrTransport as another cause. A user-set
// message may be provided if desired with msg, but it may be left as "".
//
// msg, if provided, is used to create the msg of the error by calling
// fmt.Sprint. For format capability, use WrapTransportErrorf.
func WrapTransportError(err error, msg ...any) Error {
	var errMsg string
	if len(msg) > 0 {
		errMsg = fmt.Sprint(msg...)
	}

	return Error{
		msg:   errMsg,
		cause: []error{err, ErrTransport},
	}
}

// WrapTransportErrorf creates a new Error that wraps the given error as a
// cause and automatically adds ErrTransport as another cause. A user-set
// message may be provided if desired with format and arguments a, and is used
// to create the msg of the error by calling fmt.Sprintf.
func WrapTransportErrorf(err error, format string, a ...any) Error {
	return Error{
		msg:   fmt.Sprintf(format, a...),
		cause: []error{err, ErrTransport},
	}
}
