package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ChannelObserver adapts store subscriptions to a channel for Bubble Tea.
// Notifications coalesce: the model re-reads every snapshot when one
// arrives, so a pending notification makes further ones redundant.
type ChannelObserver struct {
	ch chan StoreChangedMsg

	mu     sync.Mutex
	unsubs []func()
}

// NewChannelObserver creates a new channel-based observer
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan StoreChangedMsg, 1)}
}

// Watch registers with a store's Subscribe method
func (o *ChannelObserver) Watch(source string, subscribe func(func()) func()) {
	unsub := subscribe(func() { o.Notify(source) })

	o.mu.Lock()
	o.unsubs = append(o.unsubs, unsub)
	o.mu.Unlock()
}

// Notify sends a change to the channel (non-blocking if full)
func (o *ChannelObserver) Notify(source string) {
	select {
	case o.ch <- StoreChangedMsg{Source: source}:
	default:
	}
}

// Listen waits for the next change. The model re-issues it after every
// StoreChangedMsg.
func (o *ChannelObserver) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-o.ch
	}
}

// Close drops every subscription
func (o *ChannelObserver) Close() {
	o.mu.Lock()
	unsubs := o.unsubs
	o.unsubs = nil
	o.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
