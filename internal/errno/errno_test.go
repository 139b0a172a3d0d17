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

package errno

import (
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want syscall.Errno
	}{
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

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := Code(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestCodeIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"enospc", "Enospc", "eNoSpC"} {
		code, err := Code(name)
		require.NoError(t, err)
		assert.Equal(t, syscall.ENOSPC, code)
	}
}

func TestCodeUnknownName(t *testing.T) {
	t.Parallel()

	_, err := Code("EWHATEVER")
	require.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "EWHATEVER")
}

func TestNameUnrepresentableCode(t *testing.T) {
	t.Parallel()

	// ELOOP is a real errno but not part of the registry.
	_, err := Name(syscall.ELOOP)
	require.ErrorIs(t, err, ErrUnrepresentable)

	// The raw numeric code must survive into the message for diagnostics.
	assert.Contains(t, err.Error(), strconv.Itoa(int(syscall.ELOOP)))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	// Name(Code(x)) == x for every registered name.
	for _, want := range Names() {
		code, err := Code(want)
		require.NoError(t, err, "Code(%s)", want)

		got, err := Name(code)
		require.NoError(t, err, "Name(Code(%s))", want)
		assert.Equal(t, want, got)
	}
}

func TestNamesAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, name := range Names() {
		lower := strings.ToLower(name)
		assert.False(t, seen[lower], "duplicate name %s", name)
		seen[lower] = true
	}
}
