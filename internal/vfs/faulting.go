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
	"os"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"faultfs/internal/fault"
)

// Faulting wraps a Provider and substitutes configured failures for bound
// operations. Unbound operations delegate verbatim; bound operations never
// reach the delegate at all.
//
// The table is one configuration generation, immutable for this provider's
// lifetime. Handles opened through a Faulting provider stay intercepted for
// their whole life, even across a reload.
type Faulting struct {
	next  Provider
	table *fault.Table
	log   log.FieldLogger
}

// NewFaulting wraps next with fault injection driven by table.
func NewFaulting(next Provider, table *fault.Table, logger log.FieldLogger) *Faulting {
	return &Faulting{next: next, table: table, log: logger}
}

// inject returns the configured failure for op, or nil when op is unbound.
func (p *Faulting) inject(op, path string) *Error {
	return p.injectAs(op, op, path)
}

// injectAs consults the binding for key but reports the failure as op; the
// positioned I/O calls consult the plain read/write bindings.
func (p *Faulting) injectAs(key, op, path string) *Error {
	code, ok := p.table.Lookup(key)
	if !ok {
		return nil
	}
	e := &Error{Op: op, Path: path, Errno: code}
	p.log.Debugf("fsio: %s %q, returning %s (%s)", op, path, errName(code), code.Error())
	return e
}

// --- Foundational operations: always pass-through ---

func (p *Faulting) Open(path string, flag int, perm os.FileMode) (File, error) {
	f, err := p.next.Open(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultingFile{f: f, p: p}, nil
}

func (p *Faulting) Stat(path string) (os.FileInfo, error)  { return p.next.Stat(path) }
func (p *Faulting) Lstat(path string) (os.FileInfo, error) { return p.next.Lstat(path) }
func (p *Faulting) Symlink(target, link string) error      { return p.next.Symlink(target, link) }
func (p *Faulting) Root() string                           { return p.next.Root() }

// --- Interceptable path operations ---

func (p *Faulting) Chmod(path string, mode os.FileMode) error {
	if err := p.inject(fault.OpChmod, path); err != nil {
		return err
	}
	return p.next.Chmod(path, mode)
}

func (p *Faulting) Chown(path string, uid, gid int) error {
	if err := p.inject(fault.OpChown, path); err != nil {
		return err
	}
	return p.next.Chown(path, uid, gid)
}

func (p *Faulting) Lchown(path string, uid, gid int) error {
	if err := p.inject(fault.OpLchown, path); err != nil {
		return err
	}
	return p.next.Lchown(path, uid, gid)
}

// Chroot's session-state side effect lives in the delegate, so an injected
// failure skips it exactly as a genuine failure would.
func (p *Faulting) Chroot(path string) error {
	if err := p.inject(fault.OpChroot, path); err != nil {
		return err
	}
	return p.next.Chroot(path)
}

func (p *Faulting) Mkdir(path string, perm os.FileMode) error {
	if err := p.inject(fault.OpMkdir, path); err != nil {
		return err
	}
	return p.next.Mkdir(path, perm)
}

func (p *Faulting) Rmdir(path string) error {
	if err := p.inject(fault.OpRmdir, path); err != nil {
		return err
	}
	return p.next.Rmdir(path)
}

func (p *Faulting) Unlink(path string) error {
	if err := p.inject(fault.OpUnlink, path); err != nil {
		return err
	}
	return p.next.Unlink(path)
}

func (p *Faulting) Rename(oldpath, newpath string) error {
	if code, ok := p.table.Lookup(fault.OpRename); ok {
		e := &Error{Op: "rename", Path: oldpath, Errno: code}
		p.log.Debugf("fsio: rename %q to %q, returning %s (%s)",
			oldpath, newpath, errName(code), code.Error())
		return e
	}
	return p.next.Rename(oldpath, newpath)
}

func (p *Faulting) Readlink(path string) (string, error) {
	if err := p.inject(fault.OpReadlink, path); err != nil {
		return "", err
	}
	return p.next.Readlink(path)
}

func (p *Faulting) Utimes(path string, atime, mtime time.Time) error {
	if err := p.inject(fault.OpUtimes, path); err != nil {
		return err
	}
	return p.next.Utimes(path, atime, mtime)
}

func (p *Faulting) Opendir(path string) (Dir, error) {
	if err := p.inject(fault.OpOpendir, path); err != nil {
		return nil, err
	}
	d, err := p.next.Opendir(path)
	if err != nil {
		return nil, err
	}
	return &faultingDir{d: d, p: p}, nil
}

// --- File handle ---

type faultingFile struct {
	f File
	p *Faulting
}

func (f *faultingFile) Name() string { return f.f.Name() }

func (f *faultingFile) Read(p []byte) (int, error) {
	if err := f.p.inject(fault.OpRead, f.f.Name()); err != nil {
		return 0, err
	}
	return f.f.Read(p)
}

// ReadAt shares the read binding: faulting "read" also faults positioned
// reads, with no separate pread name exposed to configuration.
func (f *faultingFile) ReadAt(p []byte, off int64) (int, error) {
	if err := f.p.injectAs(fault.OpRead, "pread", f.f.Name()); err != nil {
		return 0, err
	}
	return f.f.ReadAt(p, off)
}

func (f *faultingFile) Write(p []byte) (int, error) {
	if err := f.p.inject(fault.OpWrite, f.f.Name()); err != nil {
		return 0, err
	}
	return f.f.Write(p)
}

// WriteAt shares the write binding, mirroring ReadAt.
func (f *faultingFile) WriteAt(p []byte, off int64) (int, error) {
	if err := f.p.injectAs(fault.OpWrite, "pwrite", f.f.Name()); err != nil {
		return 0, err
	}
	return f.f.WriteAt(p, off)
}

func (f *faultingFile) Seek(offset int64, whence int) (int64, error) {
	if err := f.p.inject(fault.OpLseek, f.f.Name()); err != nil {
		return 0, err
	}
	return f.f.Seek(offset, whence)
}

func (f *faultingFile) Close() error {
	if err := f.p.inject(fault.OpClose, f.f.Name()); err != nil {
		return err
	}
	return f.f.Close()
}

func (f *faultingFile) Fchmod(mode os.FileMode) error {
	if err := f.p.inject(fault.OpFchmod, f.f.Name()); err != nil {
		return err
	}
	return f.f.Fchmod(mode)
}

func (f *faultingFile) Fchown(uid, gid int) error {
	if err := f.p.inject(fault.OpFchown, f.f.Name()); err != nil {
		return err
	}
	return f.f.Fchown(uid, gid)
}

func (f *faultingFile) Fstat() (os.FileInfo, error) { return f.f.Fstat() }
func (f *faultingFile) Truncate(size int64) error   { return f.f.Truncate(size) }

// --- Directory handle ---

type faultingDir struct {
	d Dir
	p *Faulting
}

func (d *faultingDir) Name() string { return d.d.Name() }

func (d *faultingDir) Readdir() ([]os.FileInfo, error) {
	if err := d.p.inject(fault.OpReaddir, d.d.Name()); err != nil {
		return nil, err
	}
	return d.d.Readdir()
}

func (d *faultingDir) Close() error {
	if err := d.p.inject(fault.OpClosedir, d.d.Name()); err != nil {
		return err
	}
	return d.d.Close()
}

// errName is Name from the registry with the miss folded to the raw number;
// only used for log lines.
func errName(code syscall.Errno) string {
	e := Error{Errno: code}
	if name := e.Name(); name != "" {
		return name
	}
	return "errno"
}

// Compile-time interface checks.
var (
	_ Provider = (*Faulting)(nil)
	_ File     = (*faultingFile)(nil)
	_ Dir      = (*faultingDir)(nil)
)
