// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package board

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for missing fields and unknown enum values.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoProject is returned when a task cannot be attached to any project.
	ErrNoProject = errors.New("no project")
	// ErrUnsupported is returned for operations the configured dialect lacks.
	ErrUnsupported = errors.New("unsupported")
)

// notFoundError reads "Task abc not found" and matches ErrNotFound.
type notFoundError struct {
	kind string
	id   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.kind, e.id)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind, id string) error {
	return &notFoundError{kind: kind, id: id}
}

// invalid wraps ErrInvalidArgument with a readable message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// noProject wraps ErrNoProject with the message agents see.
func noProject(msg string) error {
	return &messageError{msg: msg, target: ErrNoProject}
}

type messageError struct {
	msg    string
	target error
}

func (e *messageError) Error() string        { return e.msg }
func (e *messageError) Is(target error) bool { return target == e.target }
