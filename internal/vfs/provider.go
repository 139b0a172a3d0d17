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

// Package vfs defines the filesystem provider surface served to sessions and
// its two implementations: Real, which delegates to the operating system,
// and Faulting, which substitutes configured failures for a subset of
// operations and delegates the rest.
package vfs

import (
	"os"
	"time"
)

// Provider is the filesystem surface mounted for a session.
//
// Open, Stat, Lstat and Symlink are foundational: they are part of the
// surface but never eligible for fault injection. Everything else maps 1:1
// onto an operation name in the fault catalog.
type Provider interface {
	// Foundational operations, always pass-through.
	Open(path string, flag int, perm os.FileMode) (File, error)
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	Symlink(target, link string) error

	// Root returns the session's effective root, updated by Chroot.
	Root() string

	// Interceptable path operations.
	Chmod(path string, mode os.FileMode) error
	Chown(path string, uid, gid int) error
	Lchown(path string, uid, gid int) error
	Chroot(path string) error
	Mkdir(path string, perm os.FileMode) error
	Rmdir(path string) error
	Unlink(path string) error
	Rename(oldpath, newpath string) error
	Readlink(path string) (string, error)
	Utimes(path string, atime, mtime time.Time) error
	Opendir(path string) (Dir, error)
}

// File is an open file handle. Read/Write/Seek/Close and the f-variants of
// chmod/chown are interceptable; ReadAt and WriteAt share the read and write
// bindings respectively. Fstat and Truncate are always pass-through.
type File interface {
	Name() string
	Read(p []byte) (int, error)
	ReadAt(p []byte, off int64) (int, error)
	Write(p []byte) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
	Fchmod(mode os.FileMode) error
	Fchown(uid, gid int) error
	Fstat() (os.FileInfo, error)
	Truncate(size int64) error
}

// Dir is an open directory handle. Both operations are interceptable
// (readdir and closedir).
type Dir interface {
	Name() string
	Readdir() ([]os.FileInfo, error)
	Close() error
}
