package output

import (
	"fmt"
	"sync"
)

// Level is a notification severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows short user-facing notices, the terminal's toasts.
type Notifier interface {
	Notify(level Level, msg string)
}

// Console prints notices through a printer.
type Console struct {
	P *Printer
}

// Notify implements Notifier.
func (c Console) Notify(level Level, msg string) {
	switch level {
	case LevelSuccess:
		c.P.Success("%s", msg)
	case LevelWarning:
		c.P.Warning("%s", msg)
	case LevelError:
		c.P.Error("%s", msg)
	default:
		c.P.Info("%s", msg)
	}
}

// Note is a recorded notification.
type Note struct {
	Level   Level
	Message string
}

func (n Note) String() string {
	return fmt.Sprintf("%s: %s", n.Level, n.Message)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Level: level, Message: msg})
}

// Notes returns a copy of everything recorded so far.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Last returns the most recent note, or a zero Note.
func (r *Recorder) Last() Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Note{}
	}
	return r.notes[len(r.notes)-1]
}

// Discard drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(Level, string) {}
