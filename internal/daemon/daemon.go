package daemon

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"faultfs/internal/session"
	"faultfs/internal/util"
)

func init() {
	// Default logging to discard until Run configures it from the config file
	log.SetOutput(io.Discard)
}

// Daemon exports one directory over NFS and owns the fault configuration
// lifecycle: load at start, swap generations on SIGHUP, tear down on
// SIGINT/SIGTERM.
type Daemon struct {
	configPath string
	cfg        *Config
	manager    *session.Manager
	logFile    *os.File
	lock       *flock.Flock
	stopCh     chan struct{}
	wg         sync.WaitGroup

	mu     sync.Mutex
	server *NFSServer

	// Foreground logs to stderr instead of the daemon log file.
	Foreground bool
}

// New creates a daemon that reads its configuration from configPath.
func New(configPath string) *Daemon {
	return &Daemon{
		configPath: configPath,
		stopCh:     make(chan struct{}),
	}
}

// Run starts the daemon and blocks until stopped
func (d *Daemon) Run() error {
	cfg, err := Load(d.configPath)
	if err != nil {
		return err
	}
	d.cfg = cfg

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	// Acquire exclusive lock
	d.lock = flock.New(LockPath())
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another daemon instance is already running")
	}
	defer d.lock.Unlock()

	if err := d.setupLogging(cfg); err != nil {
		return err
	}
	defer d.closeLogFile()

	// Write PID file
	if err := d.writePidFile(); err != nil {
		return err
	}
	defer d.removePidFile()

	table, err := cfg.BuildTable()
	if err != nil {
		return fmt.Errorf("invalid fault configuration: %w", err)
	}

	d.manager = session.NewManager(cfg.Export, cfg.FaultEngine, table, log.StandardLogger())
	log.Infof("daemon started (PID %d): exporting %s, engine=%v, %d filesystem fault(s) bound",
		os.Getpid(), cfg.Export, cfg.FaultEngine, table.Count())

	if err := d.startServer(); err != nil {
		return err
	}

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				d.reload()
				continue
			}
			log.Infof("received signal %v, shutting down", sig)
			d.shutdown()
			return nil
		case <-d.stopCh:
			log.Infof("stop requested, shutting down")
			d.shutdown()
			return nil
		}
	}
}

// Stop requests a graceful shutdown.
func (d *Daemon) Stop() {
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}
}

// Addr returns the NFS listen address once the server is bound, nil before.
func (d *Daemon) Addr() net.Addr {
	d.mu.Lock()
	srv := d.server
	d.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Addr()
}

// startServer builds a fresh session from the current generation and serves
// it. The session's interception decision is fixed here; reloads only affect
// servers started afterwards.
func (d *Daemon) startServer() error {
	sess := d.manager.Session()
	srv := NewNFSServer(sess)

	d.mu.Lock()
	d.server = srv
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := srv.Serve(d.cfg.Listen); err != nil {
			select {
			case <-srv.done:
				// expected error from the closed listener during shutdown
			default:
				log.Errorf("NFS server error: %v", err)
			}
		}
	}()

	// Wait for the listener to bind so the actual address is known before
	// Run proceeds (Listen defaults to port 0).
	if !util.WaitWithDeadline(time.Now().Add(3*time.Second), 25*time.Millisecond, func() bool {
		return srv.Addr() != nil
	}) {
		srv.Shutdown()
		return fmt.Errorf("NFS server failed to bind %s", d.cfg.Listen)
	}
	return nil
}

func (d *Daemon) stopServer() {
	d.mu.Lock()
	srv := d.server
	d.server = nil
	d.mu.Unlock()

	if srv != nil {
		srv.Shutdown()
	}
	d.wg.Wait()
}

func (d *Daemon) shutdown() {
	d.stopServer()
	log.Infof("daemon stopped")
}

// reload re-reads the config file and swaps in a new fault generation. On any
// error the current generation keeps serving untouched. The transport is
// restarted so the next session resolves against the new generation;
// mid-flight operations of the old session finish under the old snapshot.
func (d *Daemon) reload() {
	log.Infof("SIGHUP received, reloading configuration from %s", d.configPath)

	cfg, err := Load(d.configPath)
	if err != nil {
		log.Errorf("reload failed, keeping current configuration: %v", err)
		return
	}
	table, err := cfg.BuildTable()
	if err != nil {
		log.Errorf("reload failed, keeping current fault table: %v", err)
		return
	}

	applyLevel(cfg.LogLevel)
	d.cfg = cfg
	d.manager.Reload(cfg.FaultEngine, table)

	d.stopServer()
	if err := d.startServer(); err != nil {
		log.Errorf("failed to restart NFS server after reload: %v", err)
	}
}

// setupLogging routes logs per the config: daemon log file by default, stderr
// in foreground mode, discard when the level is off.
func (d *Daemon) setupLogging(cfg *Config) error {
	if !cfg.LoggingEnabled() {
		log.SetOutput(io.Discard)
		return nil
	}

	if d.Foreground {
		log.SetOutput(os.Stderr)
	} else {
		logFile, err := os.OpenFile(LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		d.logFile = logFile
		log.SetOutput(logFile)
	}

	applyLevel(cfg.LogLevel)
	return nil
}

// applyLevel sets the logrus level from a config level string (case insensitive).
func applyLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func (d *Daemon) closeLogFile() {
	if d.logFile != nil {
		d.logFile.Close()
		d.logFile = nil
	}
}

func (d *Daemon) writePidFile() error {
	data := []byte(strconv.Itoa(os.Getpid()))
	return os.WriteFile(PidPath(), data, 0600)
}

func (d *Daemon) removePidFile() {
	os.Remove(PidPath())
}

// GetPID reads the daemon PID from file
func GetPID() (int, error) {
	data, err := os.ReadFile(PidPath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// IsRunning reports whether a daemon process recorded in the PID file is alive.
func IsRunning() bool {
	pid, err := GetPID()
	if err != nil {
		return false
	}
	return util.IsProcessRunning(pid)
}
