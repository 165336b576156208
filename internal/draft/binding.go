package draft

import (
	"log/slog"
	"sync"
	"time"
)

// Binding attaches draft autosave to one text input. Every keystroke resets
// a debounce timer (classic debounce, not throttle); blur cancels the
// pending timer and saves immediately; a wrapped send deletes the draft only
// when the send callback returns nil.
type Binding struct {
	m   *Manager
	typ string
	key string

	mu    sync.Mutex
	timer *time.Timer
}

// Bind creates a binding for (typ, key) and returns any existing draft
// content to preload into the input.
func (m *Manager) Bind(typ, key string) (*Binding, string) {
	b := &Binding{m: m, typ: typ, key: key}
	return b, m.Get(typ, key).Content
}

// Input schedules a save of value for m.debounce after the last keystroke,
// cancelling any previously scheduled save.
func (b *Binding) Input(value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.m.debounce, func() {
		b.m.Set(b.typ, b.key, value)
	})
}

// Blur cancels any pending debounced save and saves value immediately.
func (b *Binding) Blur(value string) {
	b.cancel()
	b.m.Set(b.typ, b.key, value)
}

// Cancel drops any pending debounced save without writing.
func (b *Binding) Cancel() {
	b.cancel()
}

func (b *Binding) cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// WrapSend returns a send function that deletes the draft after send
// returns nil. A send error is logged and keeps the draft, so unsent
// content is not lost.
func (b *Binding) WrapSend(send func() error) func() error {
	return func() error {
		if err := send(); err != nil {
			slog.Error("send failed, keeping draft", "type", b.typ, "key", b.key, "err", err)
			return err
		}
		b.cancel()
		b.m.Delete(b.typ, b.key)
		return nil
	}
}
