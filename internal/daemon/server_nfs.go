package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"sync"
	"syscall"
	"time"

	billy "github.com/go-git/go-billy/v5"
	log "github.com/sirupsen/logrus"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"

	"faultfs/internal/common"
	"faultfs/internal/session"
	"faultfs/internal/util"
	"faultfs/internal/vfs"
)

// NFSServer serves one session's provider over NFS. Every server instance is
// bound to the session snapshot it was created with; applying a new fault
// generation means building a new session and a new server.
type NFSServer struct {
	session *session.Session
	server  *nfs.Server
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	listener net.Listener
}

// NewNFSServer creates an NFS server for the given session.
func NewNFSServer(sess *session.Session) *NFSServer {
	// Set go-nfs log level to match daemon's log level
	if log.IsLevelEnabled(log.TraceLevel) {
		nfs.Log.SetLevel(nfs.TraceLevel)
	} else if log.IsLevelEnabled(log.DebugLevel) {
		nfs.Log.SetLevel(nfs.DebugLevel)
	}
	billyFS := NewBillyAdapter(sess.FS)
	handler := nfshelper.NewNullAuthHandler(billyFS)
	cacheHelper := nfshelper.NewCachingHandler(handler, 65536)

	ctx, cancel := context.WithCancel(context.Background())
	server := &nfs.Server{
		Handler: cacheHelper,
		Context: ctx,
	}

	return &NFSServer{
		session: sess,
		server:  server,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Serve binds the listen address and serves until Shutdown. The bind is
// retried briefly so a restart after SIGHUP can reclaim the port the previous
// server instance is still releasing.
func (s *NFSServer) Serve(addr string) error {
	ctx := context.Background()
	listener, err := util.RetryWithResult(ctx, func() (net.Listener, error) {
		return net.Listen("tcp", addr)
	}, util.ListenRetryOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.Infof("session %s: serving NFS on %s", s.session.ID, listener.Addr())
	return s.server.Serve(listener)
}

// Addr returns the bound listen address, or nil before Serve has bound one.
func (s *NFSServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops the NFS server gracefully
func (s *NFSServer) Shutdown() {
	// Mark the shutdown before closing the listener so the serve loop can
	// tell the resulting accept error apart from a real failure.
	close(s.done)

	// Close the listener to stop accepting new connections
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	// Settle time for in-flight NFS operations to complete after listener close.
	time.Sleep(100 * time.Millisecond)

	// Cancel context to signal handlers to stop
	if s.cancel != nil {
		s.cancel()
	}
}

// BillyAdapter adapts a vfs.Provider to the Billy filesystem interface
// go-nfs consumes. Injected faults from the provider pass through unchanged,
// so the NFS layer reports the configured errno to the client.
type BillyAdapter struct {
	fs vfs.Provider
}

// NewBillyAdapter creates a Billy adapter for the given provider
func NewBillyAdapter(fs vfs.Provider) *BillyAdapter {
	return &BillyAdapter{fs: fs}
}

func (b *BillyAdapter) Create(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
}

func (b *BillyAdapter) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

func (b *BillyAdapter) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := b.fs.Open(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	return &BillyFile{name: filename, f: f}, nil
}

func (b *BillyAdapter) Stat(filename string) (os.FileInfo, error) {
	return b.fs.Stat(filename)
}

func (b *BillyAdapter) Lstat(filename string) (os.FileInfo, error) {
	return b.fs.Lstat(filename)
}

func (b *BillyAdapter) Rename(oldpath, newpath string) error {
	return b.fs.Rename(oldpath, newpath)
}

// Remove routes to rmdir or unlink depending on the entry type, matching what
// an NFS REMOVE/RMDIR pair would do. The choice is made before the call so an
// injected errno on either operation surfaces as-is.
func (b *BillyAdapter) Remove(filename string) error {
	fi, err := b.fs.Lstat(filename)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return b.fs.Rmdir(filename)
	}
	return b.fs.Unlink(filename)
}

func (b *BillyAdapter) Join(elem ...string) string {
	return path.Join(elem...)
}

func (b *BillyAdapter) TempFile(dir, prefix string) (billy.File, error) {
	return nil, os.ErrInvalid
}

func (b *BillyAdapter) ReadDir(dirname string) ([]os.FileInfo, error) {
	d, err := b.fs.Opendir(dirname)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdir()
}

// MkdirAll creates each missing path component in turn. EEXIST is only
// forgiven when the component really is a directory on disk, so an injected
// mkdir fault still reaches the client.
func (b *BillyAdapter) MkdirAll(filename string, perm os.FileMode) error {
	cur := "/"
	for _, part := range common.SplitPath(filename) {
		cur = path.Join(cur, part)
		if err := b.fs.Mkdir(cur, perm); err != nil {
			if errors.Is(err, syscall.EEXIST) {
				if fi, statErr := b.fs.Stat(cur); statErr == nil && fi.IsDir() {
					continue
				}
			}
			return err
		}
	}
	return nil
}

func (b *BillyAdapter) Symlink(target, link string) error {
	return b.fs.Symlink(target, link)
}

func (b *BillyAdapter) Readlink(link string) (string, error) {
	return b.fs.Readlink(link)
}

// Chroot narrows the provider's effective root in place and returns the same
// adapter. An injected chroot fault leaves the root untouched.
func (b *BillyAdapter) Chroot(path string) (billy.Filesystem, error) {
	if err := b.fs.Chroot(path); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BillyAdapter) Root() string {
	return b.fs.Root()
}

// billy.Change interface
func (b *BillyAdapter) Chmod(name string, mode os.FileMode) error {
	return b.fs.Chmod(name, mode)
}

func (b *BillyAdapter) Lchown(name string, uid, gid int) error {
	return b.fs.Lchown(name, uid, gid)
}

func (b *BillyAdapter) Chown(name string, uid, gid int) error {
	return b.fs.Chown(name, uid, gid)
}

func (b *BillyAdapter) Chtimes(name string, atime, mtime time.Time) error {
	return b.fs.Utimes(name, atime, mtime)
}

func (b *BillyAdapter) Capabilities() billy.Capability {
	return billy.WriteCapability | billy.ReadCapability |
		billy.ReadAndWriteCapability | billy.SeekCapability | billy.TruncateCapability
}

type BillyFile struct {
	name string
	f    vfs.File
}

func (f *BillyFile) Name() string {
	return f.name
}

func (f *BillyFile) Write(p []byte) (int, error) {
	return f.f.Write(p)
}

func (f *BillyFile) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

func (f *BillyFile) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

func (f *BillyFile) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

func (f *BillyFile) Close() error {
	return f.f.Close()
}

func (f *BillyFile) Lock() error {
	return nil
}

func (f *BillyFile) Unlock() error {
	return nil
}

func (f *BillyFile) Truncate(size int64) error {
	return f.f.Truncate(size)
}

var (
	_ billy.Filesystem = (*BillyAdapter)(nil)
	_ billy.Change     = (*BillyAdapter)(nil)
	_ billy.File       = (*BillyFile)(nil)
)
