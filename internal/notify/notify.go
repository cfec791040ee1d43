// Package notify delivers text and sounds to players. Delivery is fire and
// forget: nothing the engine does depends on it succeeding.
package notify

import (
	"log/slog"
	"sync"

	"github.com/gridwars/engine/pkg/core"
)

// Notifier sends to one player.
type Notifier interface {
	Message(player core.ID, text string)
	Sound(player core.ID, path string)
}

// Log writes every notification to a slog.Logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l Log) Message(player core.ID, text string) {
	l.logger().Info(text, "player", player, "kind", "message")
}

func (l Log) Sound(player core.ID, path string) {
	l.logger().Debug(path, "player", player, "kind", "sound")
}

// Note is one recorded notification.
type Note struct {
	Player core.ID
	Sound  bool
	Text   string // message text or sound path
}

// Recorder keeps notifications in memory for inspection.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

func (r *Recorder) Message(player core.ID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Player: player, Text: text})
}

func (r *Recorder) Sound(player core.ID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Player: player, Sound: true, Text: path})
}

// Notes returns a copy of everything recorded so far.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Messages returns the texts sent to player.
func (r *Recorder) Messages(player core.ID) []string {
	return r.filter(player, false)
}

// Sounds returns the sound paths sent to player.
func (r *Recorder) Sounds(player core.ID) []string {
	return r.filter(player, true)
}

func (r *Recorder) filter(player core.ID, sound bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notes {
		if n.Player == player && n.Sound == sound {
			out = append(out, n.Text)
		}
	}
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}
