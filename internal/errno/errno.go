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

// Package errno translates between symbolic error names (as they appear in
// configuration directives, e.g. "ENOSPC") and platform error codes.
//
// The descriptor table is fixed at build time. Lookup by name is
// authoritative; lookup by code returns the first matching descriptor.
package errno

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

var (
	// ErrUnknown is returned by Code for names outside the compiled-in set.
	ErrUnknown = errors.New("unknown error name")

	// ErrUnrepresentable is returned by Name for codes with no symbolic name.
	ErrUnrepresentable = errors.New("unrepresentable error code")
)

// Descriptor pairs a canonical error name with its platform code.
type Descriptor struct {
	Name string
	Code syscall.Errno
}

// portable descriptors are available on every supported platform.
var portable = []Descriptor{
	{"EACCES", syscall.EACCES},
	{"EAGAIN", syscall.EAGAIN},
	{"EBADF", syscall.EBADF},
	{"EEXIST", syscall.EEXIST},
	{"EIO", syscall.EIO},
	{"EINTR", syscall.EINTR},
	{"ENOENT", syscall.ENOENT},
	{"ENOMEM", syscall.ENOMEM},
	{"ENOSPC", syscall.ENOSPC},
	{"EPERM", syscall.EPERM},
}

// descriptors is the full table: portable first, then platform extensions.
var descriptors = append(portable[:len(portable):len(portable)], extended...)

// Code resolves a symbolic error name to its platform code.
// Matching is case-insensitive and exact. Unresolved names fail with
// ErrUnknown.
func Code(name string) (syscall.Errno, error) {
	for _, d := range descriptors {
		if strings.EqualFold(d.Name, name) {
			return d.Code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Name resolves a platform code to its symbolic name. The raw numeric code is
// preserved in the error message when no name exists, so diagnostics can
// still surface it.
func Name(code syscall.Errno) (string, error) {
	for _, d := range descriptors {
		if d.Code == code {
			return d.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %d (%s)", ErrUnrepresentable, int(code), code.Error())
}

// Names returns every registered symbolic name, portable set first.
func Names() []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}
