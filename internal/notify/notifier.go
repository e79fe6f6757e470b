package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/models"
)

// Notifier publishes transient user facing messages. Rendering them is the
// subscriber's business; the notifier only keeps the list of active ones.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	active []models.Message
	hub    *common.Hub[models.Message]
}

func New() *Notifier {
	return &Notifier{
		hub: common.NewHub[models.Message](),
	}
}

// Subscribe registers fn for every new message.
func (n *Notifier) Subscribe(fn func(models.Message)) func() {
	return n.hub.Subscribe(fn)
}

// Add publishes a message and returns its id. The first duration given
// overrides the default display time.
func (n *Notifier) Add(kind models.MessageType, text string, duration ...time.Duration) int {
	message := models.Message{
		Type:     kind,
		Text:     text,
		Duration: models.DefaultMessageDuration,
	}
	if len(duration) > 0 {
		message.Duration = duration[0]
	}

	n.mu.Lock()
	n.nextID++
	message.ID = n.nextID
	n.active = append(n.active, message)
	n.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"id":   message.ID,
		"type": message.Type,
	}).Debugln(message.Text)

	n.hub.Publish(message)
	return message.ID
}

func (n *Notifier) Success(text string, duration ...time.Duration) int {
	return n.Add(models.MessageSuccess, text, duration...)
}

func (n *Notifier) Error(text string, duration ...time.Duration) int {
	return n.Add(models.MessageError, text, duration...)
}

func (n *Notifier) Info(text string, duration ...time.Duration) int {
	return n.Add(models.MessageInfo, text, duration...)
}

func (n *Notifier) Warning(text string, duration ...time.Duration) int {
	return n.Add(models.MessageWarning, text, duration...)
}

// Remove dismisses a message before its duration runs out.
func (n *Notifier) Remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = slices.DeleteFunc(n.active, func(m models.Message) bool {
		return m.ID == id
	})
}

func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = nil
}

func (n *Notifier) Active() []models.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.active)
}
