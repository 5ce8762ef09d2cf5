package tui

import (
	"github.com/tillkruss/ruddarr/internal/service"
)

// Message types for the TUI

// StoreChangedMsg signals that a store's snapshot changed
type StoreChangedMsg struct {
	Source string
}

// ErrMsg represents an error outside of any store
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SessionOpenedMsg signals that a session became active for its type
type SessionOpenedMsg struct {
	Session *service.Session
}

// CommandDoneMsg signals that a remote command finished
type CommandDoneMsg struct {
	OK      bool
	Message string // Toast text on success
}

// ToastExpiredMsg hides the toast with the given id
type ToastExpiredMsg struct {
	ID int
}
