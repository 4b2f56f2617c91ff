// Copyright 2025 Ehab Terra
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


package annotate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced image is not in the catalog.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest means the request is missing or has invalid fields.
	ErrBadRequest = errors.New("bad request")
)

// Error carries a client-facing message for one of the sentinel kinds.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func badRequest(err error, format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Message returns the client-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
