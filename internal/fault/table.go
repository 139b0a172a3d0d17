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

package fault

import (
	"fmt"
	"sort"
	"syscall"

	log "github.com/sirupsen/logrus"

	"faultfs/internal/errno"
)

// Table maps operation names to the error code configured for them.
//
// A Table represents one configuration generation: it is populated during
// configuration parsing, strictly before any session reads it, and is
// immutable from the first Lookup on. A reload builds a fresh Table instead
// of mutating the old one, so sessions holding the old generation keep a
// consistent snapshot.
type Table struct {
	bindings map[string]syscall.Errno
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{bindings: make(map[string]syscall.Errno)}
}

// Bind associates op with code. Bindings are additive-only within a
// generation: binding an already-bound operation fails with
// ErrDuplicateBinding and leaves the first binding active, so operator
// intent is never silently overwritten.
func (t *Table) Bind(op string, code syscall.Errno) error {
	if _, ok := t.bindings[op]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBinding, op)
	}
	t.bindings[op] = code
	return nil
}

// Lookup returns the code bound to op. The second result is false when op is
// unbound, which is the common case and means "pass through to the real
// operation".
func (t *Table) Lookup(op string) (syscall.Errno, bool) {
	code, ok := t.bindings[op]
	return code, ok
}

// Count returns the number of active bindings. Sessions use it to decide
// whether installing interception is worthwhile at all.
func (t *Table) Count() int {
	return len(t.bindings)
}

// Binding is one op-to-errno entry, exposed for diagnostics.
type Binding struct {
	Op   string
	Code syscall.Errno
}

// Bindings returns the active bindings sorted by operation name.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, 0, len(t.bindings))
	for op, code := range t.bindings {
		out = append(out, Binding{Op: op, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// Dump enumerates every binding through logger at trace level.
func (t *Table) Dump(logger log.Ext1FieldLogger) {
	for _, b := range t.Bindings() {
		name, err := errno.Name(b.Code)
		if err != nil {
			// No symbolic name; surface the raw code anyway.
			logger.Tracef("  %s: errno %d [%s]", b.Op, int(b.Code), b.Code.Error())
			continue
		}
		logger.Tracef("  %s: %s (%d) [%s]", b.Op, name, int(b.Code), b.Code.Error())
	}
}
