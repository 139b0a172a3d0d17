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
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealFileRoundTrip(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)

	f, err := r.Open("/greeting", os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	// Positioned read does not disturb the file offset.
	buf := make([]byte, 5)
	n, err = f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	// Positioned write at an arbitrary offset.
	_, err = f.WriteAt([]byte("W"), 6)
	require.NoError(t, err)

	require.NoError(t, f.Close())

	content, err := os.ReadFile(filepath.Join(base, "greeting"))
	require.NoError(t, err)
	assert.Equal(t, "hello World", string(content))
}

func TestRealPathsAreConfinedToExport(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)

	// ".." cannot escape the export directory.
	require.NoError(t, r.Mkdir("/../../escape", 0755))
	fi, err := os.Stat(filepath.Join(base, "escape"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestRealRmdirAndUnlinkSemantics(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)

	require.NoError(t, os.WriteFile(filepath.Join(base, "file"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(base, "dir"), 0755))

	// rmdir refuses regular files, unlike os.Remove.
	err := r.Rmdir("/file")
	require.Error(t, err)

	require.NoError(t, r.Unlink("/file"))
	require.NoError(t, r.Rmdir("/dir"))

	// Both now gone.
	_, err = r.Stat("/file")
	assert.True(t, os.IsNotExist(err))
	_, err = r.Stat("/dir")
	assert.True(t, os.IsNotExist(err))
}

func TestRealOpendirRejectsFiles(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	require.NoError(t, os.WriteFile(filepath.Join(base, "plain"), nil, 0644))

	_, err := r.Opendir("/plain")
	require.ErrorIs(t, err, syscall.ENOTDIR)
}

func TestRealReaddir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), nil, 0644))
	}

	d, err := r.Opendir("/")
	require.NoError(t, err)
	defer d.Close()

	entries, err := d.Readdir()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRealChrootRequiresDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	require.NoError(t, os.WriteFile(filepath.Join(base, "plain"), nil, 0644))

	err := r.Chroot("/plain")
	require.ErrorIs(t, err, syscall.ENOTDIR)
	assert.Equal(t, "/", r.Root())

	_, err = os.Stat(filepath.Join(base, "missing"))
	require.Error(t, err)
	require.Error(t, r.Chroot("/missing"))
	assert.Equal(t, "/", r.Root())
}

func TestRealChrootStacks(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a", "b"), 0755))

	require.NoError(t, r.Chroot("/a"))
	require.NoError(t, r.Chroot("/b"))
	assert.Equal(t, "/a/b", r.Root())
}

func TestRealMetadataOperations(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	require.NoError(t, os.WriteFile(filepath.Join(base, "m"), []byte("x"), 0644))

	require.NoError(t, r.Chmod("/m", 0600))
	fi, err := r.Stat("/m")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.Utimes("/m", when, when))
	fi, err = r.Stat("/m")
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(when))

	f, err := r.Open("/m", os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Fchmod(0640))
	fi, err = f.Fstat()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), fi.Mode().Perm())
}

func TestRealSymlinkAndReadlink(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := NewReal(base)
	require.NoError(t, os.WriteFile(filepath.Join(base, "target"), nil, 0644))

	require.NoError(t, r.Symlink("target", "/link"))
	got, err := r.Readlink("/link")
	require.NoError(t, err)
	assert.Equal(t, "target", got)

	fi, err := r.Lstat("/link")
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)
}
