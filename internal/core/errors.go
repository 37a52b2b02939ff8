package core

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the closed taxonomy of error cases a Laqista daemon can
// surface, per the error handling design: seven variants, no others.
type Kind int

const (
	KindNotInitialised Kind = iota
	KindUnknownDeployment
	KindNoPlacement
	KindInvalidPath
	KindUpstreamUnavailable
	KindBundleFetch
	KindNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindNotInitialised:
		return "NotInitialised"
	case KindUnknownDeployment:
		return "UnknownDeployment"
	case KindNoPlacement:
		return "NoPlacement"
	case KindInvalidPath:
		return "InvalidPath"
	case KindUpstreamUnavailable:
		return "UpstreamUnavailable"
	case KindBundleFetch:
		return "BundleFetch"
	case KindNotSupported:
		return "NotSupported"
	default:
		return "Unknown"
	}
}

// grpcCode maps each Kind to the gRPC status code a client should see.
// InvalidPath is surfaced as a status code too even though the Report
// handler itself never returns it to a caller (it drops the offending
// entry and keeps going); other code paths that parse a path directly
// (e.g. Lookup's service argument) do return it.
func (k Kind) grpcCode() codes.Code {
	switch k {
	case KindNotInitialised:
		return codes.Unavailable
	case KindUnknownDeployment:
		return codes.NotFound
	case KindNoPlacement:
		return codes.Aborted
	case KindInvalidPath:
		return codes.InvalidArgument
	case KindUpstreamUnavailable:
		return codes.Unavailable
	case KindBundleFetch:
		return codes.Aborted
	case KindNotSupported:
		return codes.Unimplemented
	default:
		return codes.Unknown
	}
}

// LaqistaError wraps a Kind with a message and optional cause, and
// implements GRPCStatus() so handlers can simply `return nil, err` and
// have grpc.Server serialize the right status code.
type LaqistaError struct {
	Kind    Kind
	Message string
	Cause   error
}

func NewError(kind Kind, format string, args ...any) *LaqistaError {
	return &LaqistaError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, cause error, format string, args ...any) *LaqistaError {
	return &LaqistaError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *LaqistaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LaqistaError) Unwrap() error {
	return e.Cause
}

// GRPCStatus implements the interface google.golang.org/grpc/status
// looks for when a handler returns an error, so transport serialization
// picks the right code without every call site constructing a
// status.Status by hand.
func (e *LaqistaError) GRPCStatus() *status.Status {
	return status.New(e.Kind.grpcCode(), e.Error())
}

// KindOf extracts the Kind from err if it is (or wraps) a *LaqistaError,
// and reports ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var le *LaqistaError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
