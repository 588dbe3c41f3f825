// Package cerr defines the error type returned by every handler: a code, a
// message safe to show to callers, and the underlying error kept for logs.
package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/ganttguild/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller with Code
	Err     error           // logged only
	Stack   string          // captured for error-level codes
	Details []proto.Message // returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	e := &Error{Code: code, Msg: msg, Err: underlying}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		buf := make([]byte, 2048)
		e.Stack = string(buf[:runtime.Stack(buf, false)])
	}
	return e
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []proto.Message) *Error {
	e := NewError(code, msg, underlying)
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) AddDetailError(detail proto.Message) {
	e.Details = append(e.Details, detail)
}

func (e *Error) AddDetailMessage(msg string) *Error {
	e.Details = append(e.Details, &validate.Violation{Message: &msg})
	return e
}

// AddViolation attaches a field-scoped detail. ruleID names the broken rule,
// e.g. "dependency.acyclic".
func (e *Error) AddViolation(field, ruleID, msg string) *Error {
	v := &validate.Violation{Message: &msg, RuleId: &ruleID}
	if field != "" {
		v.Field = &validate.FieldPath{
			Elements: []*validate.FieldPathElement{{FieldName: &field}},
		}
	}
	e.Details = append(e.Details, v)
	return e
}

// Violations returns the messages of every validate.Violation detail.
func (e *Error) Violations() []string {
	var out []string
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok {
			out = append(out, v.GetMessage())
		}
	}
	return out
}

func (e *Error) ConnectError() *connect.Error {
	ce := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, d := range e.Details {
		detail, err := connect.NewErrorDetail(d)
		if err != nil {
			continue
		}
		ce.AddDetail(detail)
	}
	return ce
}

func isCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled"
}

// Normalize logs err into the context bag and returns it as an *Error,
// wrapping anything unknown as Unknown.
func Normalize(ctx context.Context, err error) *Error {
	if isCanceled(err) {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var ce *Error
	if errors.As(err, &ce) {
		if ce.Stack != "" {
			clog.AddStack(ctx, ce.Stack)
		}
		return ce
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var already *connect.Error
	if errors.As(err, &already) {
		var ce *Error
		if !errors.As(err, &ce) {
			return already
		}
	}
	return Normalize(ctx, err).ConnectError()
}

func IsCode(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf returns OK for nil, the code of an *Error, or Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return Unknown
}
