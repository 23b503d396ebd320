package permission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Prompter asks the user to grant a permission. It returns true on consent.
type Prompter interface {
	Prompt(ctx context.Context, kind Kind) (bool, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, kind Kind) (bool, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(ctx context.Context, kind Kind) (bool, error) {
	return f(ctx, kind)
}

// FileProvider keeps permission statuses in a YAML file. Requests for an
// undetermined permission go to the Prompter; without one they are denied.
type FileProvider struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	prompt Prompter
}

type fileState struct {
	Permissions map[Kind]Status `yaml:"permissions"`
}

// NewFileProvider creates a provider backed by path on fs. prompt may be nil.
func NewFileProvider(fs afero.Fs, path string, prompt Prompter) *FileProvider {
	return &FileProvider{fs: fs, path: path, prompt: prompt}
}

// Path returns the permissions file location.
func (p *FileProvider) Path() string { return p.path }

func (p *FileProvider) load() (fileState, error) {
	st := fileState{Permissions: map[Kind]Status{}}
	data, err := afero.ReadFile(p.fs, p.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read permissions: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse permissions %s: %w", p.path, err)
	}
	if st.Permissions == nil {
		st.Permissions = map[Kind]Status{}
	}
	return st, nil
}

func (p *FileProvider) save(st fileState) error {
	if err := p.fs.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create permissions dir: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	return afero.WriteFile(p.fs, p.path, data, 0644)
}

// Status returns the stored status of kind.
func (p *FileProvider) Status(_ context.Context, kind Kind) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status(kind)
}

func (p *FileProvider) status(kind Kind) (Status, error) {
	st, err := p.load()
	if err != nil {
		return Undetermined, err
	}
	s, ok := st.Permissions[kind]
	if !ok {
		return Undetermined, nil
	}
	return s, nil
}

// Set stores status for kind.
func (p *FileProvider) Set(kind Kind, status Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, err := p.load()
	if err != nil {
		return err
	}
	if status == Undetermined {
		delete(st.Permissions, kind)
	} else {
		st.Permissions[kind] = status
	}
	return p.save(st)
}

// Request returns the stored status of kind, prompting first when it is
// undetermined. The answer is remembered.
func (p *FileProvider) Request(ctx context.Context, kind Kind) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.status(kind)
	if err != nil || s != Undetermined {
		return s, err
	}

	granted := false
	if p.prompt != nil {
		granted, err = p.prompt.Prompt(ctx, kind)
		if err != nil {
			return Undetermined, fmt.Errorf("prompt %s: %w", kind, err)
		}
	}
	s = Denied
	if granted {
		s = Granted
	}

	st, err := p.load()
	if err != nil {
		return Undetermined, err
	}
	st.Permissions[kind] = s
	if err := p.save(st); err != nil {
		return Undetermined, err
	}
	return s, nil
}

func (p *FileProvider) ForegroundStatus(ctx context.Context) (Status, error) {
	return p.Status(ctx, ForegroundLocation)
}

func (p *FileProvider) BackgroundStatus(ctx context.Context) (Status, error) {
	return p.Status(ctx, BackgroundLocation)
}

func (p *FileProvider) NotificationStatus(ctx context.Context) (Status, error) {
	return p.Status(ctx, Notifications)
}

func (p *FileProvider) RequestForeground(ctx context.Context) (Status, error) {
	return p.Request(ctx, ForegroundLocation)
}

func (p *FileProvider) RequestBackground(ctx context.Context) (Status, error) {
	return p.Request(ctx, BackgroundLocation)
}

func (p *FileProvider) RequestNotifications(ctx context.Context) (Status, error) {
	return p.Request(ctx, Notifications)
}

var _ Provider = (*FileProvider)(nil)

// Static is a fixed-answer Provider for tests and embedded use.
type Static map[Kind]Status

func (s Static) get(k Kind) (Status, error) {
	if v, ok := s[k]; ok {
		return v, nil
	}
	return Undetermined, nil
}

func (s Static) ForegroundStatus(context.Context) (Status, error)   { return s.get(ForegroundLocation) }
func (s Static) BackgroundStatus(context.Context) (Status, error)   { return s.get(BackgroundLocation) }
func (s Static) RequestForeground(context.Context) (Status, error)  { return s.get(ForegroundLocation) }
func (s Static) RequestBackground(context.Context) (Status, error)  { return s.get(BackgroundLocation) }
func (s Static) NotificationStatus(context.Context) (Status, error) { return s.get(Notifications) }
func (s Static) RequestNotifications(context.Context) (Status, error) {
	return s.get(Notifications)
}

// AllGranted returns a Static provider with every permission granted.
func AllGranted() Static {
	return Static{ForegroundLocation: Granted, BackgroundLocation: Granted, Notifications: Granted}
}
