package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/travelrag/travel-cli/internal/models"
	"github.com/travelrag/travel-cli/internal/notify"
)

// messageBoard prints notifications. While a spinner owns the terminal
// messages stay active in the notifier and are printed once it is gone.
type messageBoard struct {
	mu       sync.Mutex
	out      io.Writer
	paused   bool
	notifier *notify.Notifier
}

var board = &messageBoard{out: os.Stderr}

// attachNotifications prints every notification to stderr so command
// output on stdout stays clean. A printed message is dismissed right away.
func attachNotifications(notifier *notify.Notifier) func() {
	board.mu.Lock()
	board.notifier = notifier
	board.mu.Unlock()

	return notifier.Subscribe(board.show)
}

func (b *messageBoard) show(message models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return
	}
	b.print(message)
}

func (b *messageBoard) print(message models.Message) {
	renderMessage(b.out, message)
	if b.notifier != nil {
		b.notifier.Remove(message.ID)
	}
}

func (b *messageBoard) pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
}

func (b *messageBoard) resume() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paused = false
	if b.notifier == nil {
		return
	}
	for _, message := range b.notifier.Active() {
		b.print(message)
	}
}

func renderMessage(w io.Writer, message models.Message) {
	var icon string
	style := infoStyle

	switch message.Type {
	case models.MessageSuccess:
		icon, style = "✓", successStyle
	case models.MessageError:
		icon, style = "✗", errorStyle
	case models.MessageWarning:
		icon, style = "!", warningStyle
	default:
		icon = "i"
	}

	fmt.Fprintln(w, style.Render(fmt.Sprintf("%s %s", icon, message.Text)))
}
