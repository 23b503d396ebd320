// Package notify presents region notifications to the user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Presenter shows a notification. Delivery is best effort.
type Presenter interface {
	Present(ctx context.Context, title, body string) error
}

// Title capitalizes verb and appends the task name: Title("entered", "Gym")
// returns "Entered Gym". The name is left as the user typed it.
func Title(verb, name string) string {
	verb = cases.Title(language.English).String(strings.TrimSpace(verb))
	if name == "" {
		return verb
	}
	return verb + " " + name
}

// LogPresenter writes notifications to a structured logger.
type LogPresenter struct {
	Logger *slog.Logger
}

// Present logs the notification at info level.
func (p LogPresenter) Present(_ context.Context, title, body string) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("notification", "title", title, "body", body)
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)
)

// TerminalPresenter renders each notification as a bordered box.
type TerminalPresenter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalPresenter writes to w.
func NewTerminalPresenter(w io.Writer) *TerminalPresenter {
	return &TerminalPresenter{w: w}
}

// Present renders the notification box.
func (p *TerminalPresenter) Present(_ context.Context, title, body string) error {
	box := boxStyle.Render(titleStyle.Render(title) + "\n" + bodyStyle.Render(body))
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintln(p.w, box)
	return err
}

// Multi fans a notification out to every presenter. All presenters are
// tried; their errors are joined.
type Multi []Presenter

// Present calls each presenter in order.
func (m Multi) Present(ctx context.Context, title, body string) error {
	var errs []error
	for _, p := range m {
		if err := p.Present(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps presented notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notification is one presented message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Present records the notification.
func (r *Recorder) Present(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{Title: title, Body: body})
	return nil
}

// Sent returns a copy of every recorded notification.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
