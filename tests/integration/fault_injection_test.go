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

package integration

import (
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	. "github.com/onsi/gomega"

	"faultfs/internal/vfs"
)

// TestFaultPipeline drives a config file through the same path the daemon
// takes and checks the client-visible outcome of each binding.
func TestFaultPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	g := NewWithT(t)

	env := NewTestEnv(t, true,
		"filesystem ENOSPC write",
		"filesystem EACCES mkdir",
		"filesystem EIO readdir",
	)
	sess := env.Manager().Session()
	g.Expect(sess.Injected).To(Equal(3))

	// write faults without touching the file
	f, err := sess.FS.Open("/data", os.O_CREATE|os.O_RDWR, 0644)
	g.Expect(err).NotTo(HaveOccurred())
	_, err = f.Write([]byte("x"))
	g.Expect(err).To(MatchError(syscall.ENOSPC))
	g.Expect(vfs.IsInjected(err)).To(BeTrue())
	g.Expect(f.Close()).To(Succeed())

	content, err := os.ReadFile(filepath.Join(env.Export, "data"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(content).To(BeEmpty())

	// mkdir faults and leaves no directory behind
	g.Expect(sess.FS.Mkdir("/sub", 0755)).To(MatchError(syscall.EACCES))
	_, err = os.Stat(filepath.Join(env.Export, "sub"))
	g.Expect(os.IsNotExist(err)).To(BeTrue())

	// opendir passes through, readdir faults
	d, err := sess.FS.Opendir("/")
	g.Expect(err).NotTo(HaveOccurred())
	defer d.Close()
	_, err = d.Readdir()
	g.Expect(err).To(MatchError(syscall.EIO))

	// unbound operations behave normally
	g.Expect(sess.FS.Rename("/data", "/renamed")).To(Succeed())
	g.Expect(sess.FS.Unlink("/renamed")).To(Succeed())
}

// TestEngineOffIsInert checks that bindings have no effect while the engine
// switch is off.
func TestEngineOffIsInert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	g := NewWithT(t)

	env := NewTestEnv(t, false, "filesystem ENOSPC write mkdir")
	sess := env.Manager().Session()
	g.Expect(sess.Injected).To(BeZero())

	g.Expect(sess.FS.Mkdir("/sub", 0755)).To(Succeed())

	f, err := sess.FS.Open("/sub/file", os.O_CREATE|os.O_WRONLY, 0644)
	g.Expect(err).NotTo(HaveOccurred())
	_, err = f.Write([]byte("content"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(f.Close()).To(Succeed())
}

// TestReloadSwapsGenerations checks that a rewritten config only affects
// sessions created after the reload.
func TestReloadSwapsGenerations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	g := NewWithT(t)

	env := NewTestEnv(t, true, "filesystem ENOSPC mkdir")
	m := env.Manager()

	running := m.Session()
	g.Expect(running.Injected).To(Equal(1))

	// Stage and apply a new generation, as the daemon does on SIGHUP.
	env.WriteConfig(true, "filesystem EPERM unlink")
	engine, table := env.CompileConfig()
	m.Reload(engine, table)

	reloaded := m.Session()
	g.Expect(reloaded.Injected).To(Equal(1))

	// Old session still serves the old binding.
	g.Expect(running.FS.Mkdir("/old", 0755)).To(MatchError(syscall.ENOSPC))

	// New session serves the new one.
	g.Expect(reloaded.FS.Mkdir("/new", 0755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(env.Export, "victim"), nil, 0644)).To(Succeed())
	g.Expect(reloaded.FS.Unlink("/victim")).To(MatchError(syscall.EPERM))
}

// TestDaemonServesConfiguredExport starts the real daemon and checks its NFS
// endpoint accepts connections.
func TestDaemonServesConfiguredExport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	g := NewWithT(t)

	env := NewTestEnv(t, true, "filesystem ENOSPC write")
	d := env.StartDaemon()

	addr := d.Addr()
	g.Expect(addr).NotTo(BeNil())

	conn, err := net.Dial("tcp", addr.String())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(conn.Close()).To(Succeed())
}
