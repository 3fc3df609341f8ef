package config

import (
	"log/slog"
	"sync"
)

// Notifier is the user-facing message sink.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Info(msg string) {
	if n.Logger != nil {
		n.Logger.Info(msg)
	}
}

func (n LogNotifier) Error(msg string) {
	if n.Logger != nil {
		n.Logger.Error(msg)
	}
}

type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notices records messages so a caller can surface them later.
type Notices struct {
	mu    sync.Mutex
	items []Notice
}

func (n *Notices) Info(msg string)  { n.add("info", msg) }
func (n *Notices) Error(msg string) { n.add("error", msg) }

func (n *Notices) add(level string, msg string) {
	n.mu.Lock()
	n.items = append(n.items, Notice{Level: level, Message: msg})
	n.mu.Unlock()
}

// Drain returns and clears the recorded notices.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	return out
}

// Tee fans a message out to several sinks.
type Tee []Notifier

func (t Tee) Info(msg string) {
	for _, n := range t {
		if n != nil {
			n.Info(msg)
		}
	}
}

func (t Tee) Error(msg string) {
	for _, n := range t {
		if n != nil {
			n.Error(msg)
		}
	}
}

func notifyError(n Notifier, msg string) {
	if n != nil {
		n.Error(msg)
	}
}
