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

// Package session decides, once per session, whether fault interception is
// installed, and owns the current configuration generation across reloads.
package session

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"faultfs/internal/fault"
	"faultfs/internal/vfs"
)

// Manager owns the engine flag and the current fault-table generation. A
// reload swaps the generation for sessions created afterwards; sessions
// already serving keep the snapshot they started with.
type Manager struct {
	export string
	logger log.FieldLogger

	mu     sync.RWMutex
	engine bool
	table  *fault.Table
}

// Session is one worker's immutable view: a provider and its identity for
// log correlation. Once built, the interception decision never changes for
// the session's lifetime.
type Session struct {
	ID       string
	FS       vfs.Provider
	Injected int // bindings active for this session, 0 = plain pass-through
}

// NewManager builds a manager for the export directory with an initial
// generation. table may be empty but not nil.
func NewManager(export string, engine bool, table *fault.Table, logger log.FieldLogger) *Manager {
	return &Manager{
		export: export,
		logger: logger,
		engine: engine,
		table:  table,
	}
}

// Reload installs a new generation for subsequent sessions. The previous
// table is discarded, never mutated, so in-flight sessions keep reading a
// consistent snapshot.
func (m *Manager) Reload(engine bool, table *fault.Table) {
	m.mu.Lock()
	m.engine = engine
	m.table = table
	m.mu.Unlock()

	m.logger.Infof("configuration reloaded: engine=%v, %d filesystem fault(s) bound", engine, table.Count())
}

// Session resolves the engine state for a new session and installs the
// matching provider: a faulting wrapper when the engine is on and at least
// one binding exists, the plain real provider otherwise.
func (m *Manager) Session() *Session {
	m.mu.RLock()
	engine, table := m.engine, m.table
	m.mu.RUnlock()

	id := uuid.New().String()
	logger := m.logger.WithField("session", id)
	real := vfs.NewReal(m.export)

	count := table.Count()
	if !engine || count == 0 {
		return &Session{ID: id, FS: real}
	}

	logger.Debugf("filesystem fault injections (%d) configured, installing faulting provider", count)
	if log.IsLevelEnabled(log.TraceLevel) {
		table.Dump(logger)
	}

	return &Session{
		ID:       id,
		FS:       vfs.NewFaulting(real, table, logger),
		Injected: count,
	}
}
