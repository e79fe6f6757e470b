package sessions

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const ReturnURLKey = "return_url"

// ReturnLedger remembers where the user was headed when access was
// denied. At most one destination is pending; taking it clears it.
type ReturnLedger struct {
	storage Storage
}

func NewReturnLedger(storage Storage) *ReturnLedger {
	if storage == nil {
		storage = NullStorage{}
	}
	return &ReturnLedger{storage: storage}
}

// Set replaces any pending destination.
func (l *ReturnLedger) Set(path string) error {
	if len(path) == 0 {
		return l.Clear()
	}

	logrus.WithField("returnUrl", path).Debugln("Recording return destination")

	if err := l.storage.Set(map[string]string{ReturnURLKey: path}); err != nil {
		return fmt.Errorf("failed to record return destination: %w", err)
	}
	return nil
}

// Peek reports the pending destination without consuming it.
func (l *ReturnLedger) Peek() (string, bool) {
	path, ok := l.storage.Get(ReturnURLKey)
	return path, ok && len(path) > 0
}

func (l *ReturnLedger) TakeIfPresent() (string, bool) {
	path, ok, err := l.storage.Take(ReturnURLKey)
	if err != nil {
		logrus.WithError(err).Errorln("Failed to consume return destination")
		return "", false
	}
	if !ok || len(path) == 0 {
		return "", false
	}

	logrus.WithField("returnUrl", path).Debugln("Consumed return destination")

	return path, true
}

func (l *ReturnLedger) Clear() error {
	if err := l.storage.Remove(ReturnURLKey); err != nil {
		return fmt.Errorf("failed to clear return destination: %w", err)
	}
	return nil
}
