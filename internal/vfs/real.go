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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Real is the genuine filesystem provider. All paths are resolved under an
// export directory, narrowed further by Chroot. Operations delegate to the
// os package, dropping to golang.org/x/sys/unix where the os package has no
// equivalent (rmdir, unlink, positioned I/O, the f-variants).
type Real struct {
	base string

	mu   sync.RWMutex
	root string // effective root below base, "/"-rooted; set by Chroot
}

// NewReal returns a provider rooted at the export directory base.
func NewReal(base string) *Real {
	return &Real{base: base, root: "/"}
}

// resolve maps a session path to a host path. The leading filepath.Join
// against "/" collapses any ".." escape before the path leaves the root.
func (r *Real) resolve(name string) string {
	r.mu.RLock()
	root := r.root
	r.mu.RUnlock()
	return filepath.Join(r.base, root, filepath.Join("/", name))
}

// Root returns the effective root recorded by the last successful Chroot.
func (r *Real) Root() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// --- Foundational operations ---

func (r *Real) Open(path string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(r.resolve(path), flag, perm)
	if err != nil {
		return nil, err
	}
	return &realFile{f: f, name: path}, nil
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(r.resolve(path))
}

func (r *Real) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(r.resolve(path))
}

func (r *Real) Symlink(target, link string) error {
	return os.Symlink(target, r.resolve(link))
}

// --- Interceptable path operations ---

func (r *Real) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(r.resolve(path), mode)
}

func (r *Real) Chown(path string, uid, gid int) error {
	return os.Chown(r.resolve(path), uid, gid)
}

func (r *Real) Lchown(path string, uid, gid int) error {
	return os.Lchown(r.resolve(path), uid, gid)
}

// Chroot narrows the effective root. On success the new root is recorded as
// session state; on failure (including injected failure upstream) the state
// is untouched.
func (r *Real) Chroot(path string) error {
	fi, err := os.Stat(r.resolve(path))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "chroot", Path: path, Err: syscall.ENOTDIR}
	}

	r.mu.Lock()
	r.root = filepath.Join(r.root, filepath.Join("/", path))
	r.mu.Unlock()
	return nil
}

func (r *Real) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(r.resolve(path), perm)
}

func (r *Real) Rmdir(path string) error {
	if err := unix.Rmdir(r.resolve(path)); err != nil {
		return &fs.PathError{Op: "rmdir", Path: path, Err: err}
	}
	return nil
}

func (r *Real) Unlink(path string) error {
	if err := unix.Unlink(r.resolve(path)); err != nil {
		return &fs.PathError{Op: "unlink", Path: path, Err: err}
	}
	return nil
}

func (r *Real) Rename(oldpath, newpath string) error {
	return os.Rename(r.resolve(oldpath), r.resolve(newpath))
}

func (r *Real) Readlink(path string) (string, error) {
	return os.Readlink(r.resolve(path))
}

func (r *Real) Utimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(r.resolve(path), atime, mtime)
}

func (r *Real) Opendir(path string) (Dir, error) {
	f, err := os.Open(r.resolve(path))
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !fi.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "opendir", Path: path, Err: syscall.ENOTDIR}
	}
	return &realDir{f: f, name: path}, nil
}

// --- File handle ---

type realFile struct {
	f    *os.File
	name string // session path, for diagnostics
}

func (f *realFile) Name() string { return f.name }

func (f *realFile) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

// ReadAt is the positioned read. Platforms without pread report ENOSYS; the
// fallback treats the call as a plain sequential read, matching what the
// real I/O layer does there.
func (f *realFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(int(f.f.Fd()), p, off)
	if err == unix.ENOSYS {
		return f.f.Read(p)
	}
	if err != nil {
		return n, &fs.PathError{Op: "read", Path: f.name, Err: err}
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *realFile) Write(p []byte) (int, error) {
	return f.f.Write(p)
}

// WriteAt is the positioned write. Without pwrite there is no safe
// sequential equivalent, so ENOSYS is reported instead of degrading.
func (f *realFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := unix.Pwrite(int(f.f.Fd()), p, off)
	if err != nil {
		return n, &fs.PathError{Op: "write", Path: f.name, Err: err}
	}
	return n, nil
}

func (f *realFile) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

func (f *realFile) Close() error {
	return f.f.Close()
}

func (f *realFile) Fchmod(mode os.FileMode) error {
	if err := unix.Fchmod(int(f.f.Fd()), uint32(mode.Perm())); err != nil {
		return &fs.PathError{Op: "fchmod", Path: f.name, Err: err}
	}
	return nil
}

func (f *realFile) Fchown(uid, gid int) error {
	if err := unix.Fchown(int(f.f.Fd()), uid, gid); err != nil {
		return &fs.PathError{Op: "fchown", Path: f.name, Err: err}
	}
	return nil
}

func (f *realFile) Fstat() (os.FileInfo, error) {
	return f.f.Stat()
}

func (f *realFile) Truncate(size int64) error {
	return f.f.Truncate(size)
}

// --- Directory handle ---

type realDir struct {
	f    *os.File
	name string
}

func (d *realDir) Name() string { return d.name }

func (d *realDir) Readdir() ([]os.FileInfo, error) {
	return d.f.Readdir(-1)
}

func (d *realDir) Close() error {
	return d.f.Close()
}

// Compile-time interface checks.
var (
	_ Provider = (*Real)(nil)
	_ File     = (*realFile)(nil)
	_ Dir      = (*realDir)(nil)
)
