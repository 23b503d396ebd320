package platform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// badSuffix is appended to event files that could not be decoded.
const badSuffix = ".bad"

// InboxConfig configures an Inbox.
type InboxConfig struct {
	Fs       afero.Fs
	Dir      string
	TaskName string
	Registry *Registry
	// Monitor, when set, is consulted for the registered task name and
	// to flag events for regions outside the monitored set.
	Monitor Monitor
	Logger  *slog.Logger
}

// Inbox receives region-crossing events as files dropped into a directory
// and hands each one to the registered background handler. Handlers run on
// the inbox goroutine, independent of any editing session.
//
// Writers should publish an event by renaming a finished file into the
// directory, as Emit does. Empty files are left in place until a later
// write fills them.
type Inbox struct {
	fs       afero.Fs
	dir      string
	taskName string
	registry *Registry
	monitor  Monitor
	log      *slog.Logger

	mu        sync.Mutex
	delivered int
}

// NewInbox creates an inbox. Fs defaults to the OS filesystem.
func NewInbox(cfg InboxConfig) *Inbox {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.TaskName == "" {
		cfg.TaskName = DefaultTaskName
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Inbox{
		fs:       cfg.Fs,
		dir:      cfg.Dir,
		taskName: cfg.TaskName,
		registry: cfg.Registry,
		monitor:  cfg.Monitor,
		log:      cfg.Logger,
	}
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string { return in.dir }

// Delivered returns how many events reached a handler.
func (in *Inbox) Delivered() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.delivered
}

// Emit drops an event file into the inbox, as the OS would on a crossing.
func (in *Inbox) Emit(_ context.Context, ev Event) (string, error) {
	if _, err := ParseEventType(string(ev.Type)); err != nil {
		return "", err
	}
	if err := in.fs.MkdirAll(in.dir, 0755); err != nil {
		return "", fmt.Errorf("create inbox: %w", err)
	}
	data, err := yaml.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	name := fmt.Sprintf("%d-%s.yaml", time.Now().UnixNano(), uuid.New().String()[:8])
	path := filepath.Join(in.dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(in.fs, tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write event: %w", err)
	}
	if err := in.fs.Rename(tmp, path); err != nil {
		_ = in.fs.Remove(tmp)
		return "", fmt.Errorf("publish event: %w", err)
	}
	return path, nil
}

// Drain processes every pending event file in name order.
func (in *Inbox) Drain(ctx context.Context) error {
	entries, err := afero.ReadDir(in.fs, in.dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isEventFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		in.Process(ctx, filepath.Join(in.dir, name))
	}
	return nil
}

// Run drains the inbox and then watches it until ctx is cancelled. It only
// works on the OS filesystem.
func (in *Inbox) Run(ctx context.Context) error {
	if err := in.fs.MkdirAll(in.dir, 0755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("watch %s: %w", in.dir, err)
	}
	if err := in.Drain(ctx); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !isEventFile(filepath.Base(event.Name)) {
				continue
			}
			in.Process(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.log.Warn("inbox watch error", "dir", in.dir, "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// Process decodes and dispatches one event file, then removes it. Files
// that cannot be decoded are renamed with a .bad suffix.
func (in *Inbox) Process(ctx context.Context, path string) {
	data, err := afero.ReadFile(in.fs, path)
	if err != nil {
		// Rename events fire for the old name too; a vanished file was
		// already handled.
		in.log.Debug("event file unreadable", "path", path, "error", err)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		in.log.Debug("event file still empty", "path", path)
		return
	}

	var ev Event
	if err := yaml.Unmarshal(data, &ev); err != nil || ev.Type == "" {
		if err == nil {
			err = fmt.Errorf("missing event type")
		}
		in.reject(path, err)
		return
	}
	typ, err := ParseEventType(string(ev.Type))
	if err != nil {
		in.reject(path, err)
		return
	}
	ev.Type = typ

	if err := in.fs.Remove(path); err != nil {
		in.log.Warn("remove event file", "path", path, "error", err)
		return
	}
	in.dispatch(ctx, ev)
}

func (in *Inbox) reject(path string, err error) {
	in.log.Warn("malformed region event", "path", path, "error", err)
	if rerr := in.fs.Rename(path, path+badSuffix); rerr != nil {
		in.log.Warn("move aside malformed event", "path", path, "error", rerr)
	}
}

func (in *Inbox) dispatch(ctx context.Context, ev Event) {
	name := in.taskName
	if in.monitor != nil {
		registered, regions, err := in.monitor.Registered(ctx)
		switch {
		case err != nil:
			in.log.Warn("read registration", "error", err)
		case registered != "":
			name = registered
			if !containsRegion(regions, ev.RegionID) {
				in.log.Debug("event for unregistered region", "region_id", ev.RegionID)
			}
		}
	}

	h, ok := in.registry.Lookup(name)
	if !ok {
		in.log.Warn("no handler defined for background task", "task", name, "region_id", ev.RegionID)
		return
	}
	h(ctx, ev)

	in.mu.Lock()
	in.delivered++
	in.mu.Unlock()
}

func isEventFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".json")
}
