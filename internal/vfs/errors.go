// Copyright 2026 FaultFS Authors
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

package vfs

import (
	"errors"
	"fmt"
	"syscall"

	"faultfs/internal/errno"
)

// Error is an injected failure. It carries both the platform code and, via
// Name, its symbolic spelling, so the contract is visible in the value
// rather than smuggled through an ambient side channel.
//
// Unwrap yields the syscall.Errno, so errors.Is(err, unix.ENOSPC) and
// os.IsPermission-style checks treat an injected failure exactly like a
// genuine one.
type Error struct {
	Op    string
	Path  string
	Errno syscall.Errno
}

func (e *Error) Error() string {
	if name, err := errno.Name(e.Errno); err == nil {
		return fmt.Sprintf("%s %s: %s (%s)", e.Op, e.Path, name, e.Errno.Error())
	}
	return fmt.Sprintf("%s %s: errno %d (%s)", e.Op, e.Path, int(e.Errno), e.Errno.Error())
}

// Unwrap returns the underlying platform error code.
func (e *Error) Unwrap() error {
	return e.Errno
}

// Name returns the symbolic error name, or the empty string when the code
// has no registered name.
func (e *Error) Name() string {
	name, err := errno.Name(e.Errno)
	if err != nil {
		return ""
	}
	return name
}

// Timeout reports whether the injected code is a timeout-class errno.
func (e *Error) Timeout() bool {
	return e.Errno.Timeout()
}

// IsInjected reports whether err (or any error it wraps) was synthesized by
// the faulting provider rather than produced by a real operation.
func IsInjected(err error) bool {
	var injected *Error
	return errors.As(err, &injected)
}
