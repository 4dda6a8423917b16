package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"
)

var (
	ErrAlreadyRunning = errors.New("supervisor already running")
	ErrNotRunning     = errors.New("supervisor not running")
)

// SupervisorConfig tunes the directory watcher and its worker pool.
type SupervisorConfig struct {
	Dir           string
	Workers       int
	QueueCapacity int
	SettleDelay   time.Duration
	ScanOnStart   bool
}

type job struct {
	path     string
	observed time.Time
}

// Supervisor watches a directory for new WAV recordings and feeds them to
// the lifecycle controller through a bounded queue drained by a fixed set
// of workers.
type Supervisor struct {
	cfg  SupervisorConfig
	proc *Processor

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	queue   chan job
	wg      sync.WaitGroup
}

// NewSupervisor creates a supervisor over cfg.Dir. Zero or negative
// worker and queue settings fall back to safe minimums.
func NewSupervisor(cfg SupervisorConfig, proc *Processor) *Supervisor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1
	}
	return &Supervisor{cfg: cfg, proc: proc}
}

// Start begins watching. It returns ErrAlreadyRunning on a second call
// and surfaces watcher setup failures to the caller.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.cfg.Dir); err != nil {
		watcher.Close()
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.queue = make(chan job, s.cfg.QueueCapacity)
	s.running = true

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.wg.Add(1)
	go s.watch(ctx, watcher)

	slog.Info("watching for recordings",
		slog.String("dir", s.cfg.Dir),
		slog.Int("workers", s.cfg.Workers),
		slog.Int("queue_capacity", s.cfg.QueueCapacity))

	if s.cfg.ScanOnStart {
		s.wg.Add(1)
		go s.scanBacklog(ctx)
	}
	return nil
}

// Stop cancels the watcher and waits for in-flight jobs to finish. It
// returns ErrNotRunning if Start has not been called.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	return nil
}

// Enqueue offers a path to the work queue without blocking. A full queue
// drops the job; the backlog scan on the next start picks it up again.
func (s *Supervisor) Enqueue(path string) bool {
	select {
	case s.queue <- job{path: path, observed: time.Now()}:
		return true
	default:
		slog.Warn("work queue full, dropping recording", slog.String("path", path))
		return false
	}
}

func isRecording(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

func (s *Supervisor) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) || !isRecording(event.Name) {
				continue
			}
			slog.Info("new recording detected", slog.String("path", event.Name))
			s.Enqueue(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			util.Log(ctx).WithError(err).Error("directory watcher error")
		}
	}
}

// scanBacklog enqueues recordings that arrived while the service was
// down. Already-done files are skipped by the lifecycle controller.
func (s *Supervisor) scanBacklog(ctx context.Context) {
	defer s.wg.Done()

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		util.Log(ctx).WithError(err).Error("scanning watch directory")
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !isRecording(entry.Name()) {
			continue
		}
		s.Enqueue(filepath.Join(s.cfg.Dir, entry.Name()))
	}
}

func (s *Supervisor) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if !s.settle(ctx, j) {
				return
			}
			s.proc.Process(ctx, j.path)
		}
	}
}

// settle waits out the write-settle window so half-copied files are not
// fed to the ASR service. Returns false if the context was cancelled.
func (s *Supervisor) settle(ctx context.Context, j job) bool {
	remaining := s.cfg.SettleDelay - time.Since(j.observed)
	if remaining <= 0 {
		return true
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
