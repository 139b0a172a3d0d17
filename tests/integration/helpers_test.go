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

// Package integration exercises the full configuration-to-fault pipeline:
// a config file is loaded, compiled into a fault table, served through the
// session manager and observed through the filesystem surface the NFS layer
// consumes. Tests are isolated via FAULTFS_CONFIG_DIR, never the user's
// ~/.faultfs.
package integration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"faultfs/internal/daemon"
	"faultfs/internal/fault"
	"faultfs/internal/session"
	"faultfs/internal/util"
)

// TestEnv is one isolated daemon environment: its own config dir, export
// directory and config file.
type TestEnv struct {
	t          *testing.T
	ConfigDir  string
	Export     string
	ConfigPath string
}

// NewTestEnv creates an isolated environment and writes a config file with
// the given inject directives. The FAULTFS_CONFIG_DIR env var is redirected
// for the duration of the test, so tests using this helper must not call
// t.Parallel.
func NewTestEnv(t *testing.T, engine bool, inject ...string) *TestEnv {
	t.Helper()

	configDir := t.TempDir()
	t.Setenv("FAULTFS_CONFIG_DIR", configDir)

	env := &TestEnv{
		t:          t,
		ConfigDir:  configDir,
		Export:     t.TempDir(),
		ConfigPath: filepath.Join(configDir, "config.yaml"),
	}
	env.WriteConfig(engine, inject...)
	return env
}

// WriteConfig rewrites the environment's config file, preserving its export
// directory. Used to stage a different generation before a reload.
func (env *TestEnv) WriteConfig(engine bool, inject ...string) {
	env.t.Helper()

	content := fmt.Sprintf("fault_engine: %v\nexport: %s\nlisten: 127.0.0.1:0\n", engine, env.Export)
	if len(inject) > 0 {
		content += "inject:\n"
		for _, line := range inject {
			content += "  - " + line + "\n"
		}
	}
	if err := os.WriteFile(env.ConfigPath, []byte(content), 0600); err != nil {
		env.t.Fatalf("failed to write config: %v", err)
	}
}

// CompileConfig loads the environment's config file and compiles its inject
// directives, the same way the daemon does at startup and on SIGHUP.
func (env *TestEnv) CompileConfig() (bool, *fault.Table) {
	env.t.Helper()

	cfg, err := daemon.Load(env.ConfigPath)
	if err != nil {
		env.t.Fatalf("failed to load config: %v", err)
	}
	table, err := cfg.BuildTable()
	if err != nil {
		env.t.Fatalf("failed to build fault table: %v", err)
	}
	return cfg.FaultEngine, table
}

// Manager builds a session manager from the environment's config.
func (env *TestEnv) Manager() *session.Manager {
	env.t.Helper()

	engine, table := env.CompileConfig()
	logger := log.New()
	logger.SetOutput(io.Discard)
	return session.NewManager(env.Export, engine, table, logger)
}

// StartDaemon runs a daemon against the environment's config and waits for
// its NFS listener to bind. Cleanup stops it.
func (env *TestEnv) StartDaemon() *daemon.Daemon {
	env.t.Helper()

	d := daemon.New(env.ConfigPath)
	runErr := make(chan error, 1)
	go func() {
		runErr <- d.Run()
	}()

	if !util.WaitWithDeadline(time.Now().Add(5*time.Second), 25*time.Millisecond, func() bool {
		return d.Addr() != nil
	}) {
		env.t.Fatal("daemon did not bind its NFS listener")
	}

	env.t.Cleanup(func() {
		d.Stop()
		select {
		case <-runErr:
		case <-time.After(5 * time.Second):
			env.t.Error("daemon did not stop during cleanup")
		}
	})
	return d
}
