// Copyright 2017 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors classifies the failures the temporal index can produce
// into the three kinds the driver needs to act on differently: a usage
// error (bad CLI/unreadable stream), a precondition violation (fatal,
// terminates the process), or a not-found condition (recoverable, logged
// and skipped).
package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the classification of an Error.
type Kind int

const (
	// Unknown is the zero Kind; it should not be constructed directly.
	Unknown Kind = iota
	// Usage covers bad CLI invocations, unreadable event streams, and
	// unknown Live Index backend names.
	Usage
	// Precondition covers a violated algorithmic invariant: a
	// non-monotone version, an erase/query argument outside the entity's
	// lifespan, or a query at a version beyond m_current_version. These
	// are never recoverable.
	Precondition
	// NotFound covers erase/remove of a record id that is not currently
	// live. It is the only recoverable failure.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage error"
	case Precondition:
		return "precondition violation"
	case NotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Error is a classified error. It satisfies the standard unwrap protocol so
// callers can still test against a wrapped sentinel with errors.Is/As.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// GRPCStatus lets an *Error be consumed through google.golang.org/grpc/status,
// the classification vocabulary the teacher storage layer also reports
// through (status.Errorf(codes.NotFound, ...) etc).
func (e *Error) GRPCStatus() *status.Status {
	switch e.Kind {
	case Usage:
		return status.New(codes.InvalidArgument, e.Error())
	case NotFound:
		return status.New(codes.NotFound, e.Error())
	case Precondition:
		return status.New(codes.FailedPrecondition, e.Error())
	default:
		return status.New(codes.Unknown, e.Error())
	}
}

func newf(k Kind, cause error, format string, args []interface{}) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Usagef reports a usage error.
func Usagef(format string, args ...interface{}) error { return newf(Usage, nil, format, args) }

// Preconditionf reports a violated invariant. Per spec these are fatal;
// callers let them propagate rather than attempt recovery.
func Preconditionf(format string, args ...interface{}) error {
	return newf(Precondition, nil, format, args)
}

// NotFoundf reports a not-currently-live record id.
func NotFoundf(format string, args ...interface{}) error { return newf(NotFound, nil, format, args) }

// Wrap reattaches a Kind to an arbitrary cause, analogous to the teacher's
// WrapError(sql.ErrNoRows) translating a storage-specific sentinel into a
// classified error the rest of the system can switch on.
func Wrap(k Kind, cause error, format string, args ...interface{}) error {
	return newf(k, cause, format, args)
}

// Is reports whether err (or anything it wraps) has the given Kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
