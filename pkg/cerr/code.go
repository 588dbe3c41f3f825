package cerr

import (
	"net/http"

	"connectrpc.com/connect"
)

// Code mirrors the connect codes so handlers outside of connect (plain
// chi routes, the CLI) can share one error vocabulary.
type Code int

const (
	OK Code = iota
	Canceled
	Unknown
	InvalidArgument
	DeadlineExceeded
	NotFound
	AlreadyExists
	PermissionDenied
	ResourceExhausted
	FailedPrecondition
	Aborted
	OutOfRange
	Unimplemented
	Internal
	Unavailable
	DataLoss
	Unauthenticated
)

// The numeric values line up with connect.Code, so conversion is a cast
// guarded by a range check.
func (c Code) ConnectCode() connect.Code {
	if c == OK {
		return 0
	}
	if c < Canceled || c > Unauthenticated {
		return connect.CodeUnknown
	}
	return connect.Code(c)
}

func NewCodeFromConnectError(err error) Code {
	cc := connect.CodeOf(err)
	if cc < connect.CodeCanceled || cc > connect.CodeUnauthenticated {
		return Unknown
	}
	return Code(cc)
}

func (c Code) String() string {
	if c == OK {
		return "ok"
	}
	return c.ConnectCode().String()
}

var httpStatus = map[Code]int{
	OK:                 http.StatusOK,
	Canceled:           499,
	Unknown:            http.StatusInternalServerError,
	InvalidArgument:    http.StatusBadRequest,
	DeadlineExceeded:   http.StatusGatewayTimeout,
	NotFound:           http.StatusNotFound,
	AlreadyExists:      http.StatusConflict,
	PermissionDenied:   http.StatusForbidden,
	ResourceExhausted:  http.StatusTooManyRequests,
	FailedPrecondition: http.StatusPreconditionFailed,
	Aborted:            http.StatusConflict,
	OutOfRange:         http.StatusBadRequest,
	Unimplemented:      http.StatusNotImplemented,
	Internal:           http.StatusInternalServerError,
	Unavailable:        http.StatusServiceUnavailable,
	DataLoss:           http.StatusInternalServerError,
	Unauthenticated:    http.StatusUnauthorized,
}

func (c Code) HTTPCode() int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ExitCode is used by the CLI: 0 for OK, 1 for client-side mistakes and 2
// for everything else.
func (c Code) ExitCode() int {
	switch c {
	case OK:
		return 0
	case InvalidArgument, NotFound, AlreadyExists, FailedPrecondition, OutOfRange:
		return 1
	}
	return 2
}
