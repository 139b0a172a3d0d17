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

// Package fault holds the configured operation->error bindings and the
// validation logic that populates them from configuration directives.
package fault

import "strings"

// Operation names eligible for fault injection. These are the keys accepted
// by FaultInject directives and consulted by the interception layer.
//
// Positioned reads share the "read" binding and positioned writes share the
// "write" binding; there are no separate pread/pwrite names.
const (
	OpChmod    = "chmod"
	OpChown    = "chown"
	OpChroot   = "chroot"
	OpClose    = "close"
	OpClosedir = "closedir"
	OpFchmod   = "fchmod"
	OpFchown   = "fchown"
	OpLchown   = "lchown"
	OpLseek    = "lseek"
	OpMkdir    = "mkdir"
	OpOpendir  = "opendir"
	OpRead     = "read"
	OpReaddir  = "readdir"
	OpReadlink = "readlink"
	OpRename   = "rename"
	OpRmdir    = "rmdir"
	OpUnlink   = "unlink"
	OpUtimes   = "utimes"
	OpWrite    = "write"
)

// operations is the catalog of interceptable filesystem operations.
// open, stat, lstat and fstat are deliberately absent: failing them would
// destabilize the host itself rather than exercise its error paths.
var operations = []string{
	OpChmod,
	OpChown,
	OpChroot,
	OpClose,
	OpClosedir,
	OpFchmod,
	OpFchown,
	OpLchown,
	OpLseek,
	OpMkdir,
	OpOpendir,
	OpRead,
	OpReaddir,
	OpReadlink,
	OpRename,
	OpRmdir,
	OpUnlink,
	OpUtimes,
	OpWrite,
}

// Supported reports whether name is an interceptable operation.
// Matching is case-insensitive.
func Supported(name string) bool {
	for _, op := range operations {
		if strings.EqualFold(op, name) {
			return true
		}
	}
	return false
}

// Operations returns the catalog in its canonical order.
func Operations() []string {
	out := make([]string, len(operations))
	copy(out, operations)
	return out
}
