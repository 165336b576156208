package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/auth"
	"palabre/internal/chat"
	"palabre/internal/config"
	"palabre/internal/draft"
	"palabre/internal/store"
)

// Deps carries the explicitly-constructed services every screen needs.
// There is no ambient global state: main wires these once and each screen
// hands them to the next.
type Deps struct {
	Cfg    *config.Config
	Store  *store.Store
	Auth   *auth.Manager
	Drafts *draft.Manager

	// Chats is the conversation store of the logged-in user. Nil until a
	// login succeeds; reset to nil on logout.
	Chats *chat.Store

	// Send delivers a message into the running bubbletea program, letting
	// timers (session expiry, synthesized replies) reach the UI loop.
	Send func(tea.Msg)
}

// SessionExpiredMsg is delivered when the session-expiry timer fires. Every
// screen drops back to the auth screen on receipt.
type SessionExpiredMsg struct{}

// ConversationsChangedMsg is delivered when conversation state changed
// outside an input event (a synthesized group reply arrived).
type ConversationsChangedMsg struct{}

// draftCountMsg refreshes the drafts badge shown on the menu.
type draftCountMsg struct{ total int }

// OpenChats creates the conversation store for the logged-in user and hooks
// its change notifications into the program loop.
func (d *Deps) OpenChats(userID string) {
	d.Chats = chat.NewStore(d.Store, userID, chat.Options{
		ReplyDelayMin: d.Cfg.ReplyDelayMin,
		ReplyDelayMax: d.Cfg.ReplyDelayMax,
		AdminCap:      d.Cfg.GroupAdminCap,
	})
	d.Chats.SetNotify(func() {
		if d.Send != nil {
			d.Send(ConversationsChangedMsg{})
		}
	})
}

// DraftIndicator returns the callback the draft manager calls with its
// total, feeding the badge on the menu.
func (d *Deps) DraftIndicator() func(total int) {
	return func(total int) {
		if d.Send != nil {
			d.Send(draftCountMsg{total: total})
		}
	}
}

// CloseChats drops the per-user conversation store after a logout.
func (d *Deps) CloseChats() {
	if d.Chats != nil {
		d.Chats.Close()
		d.Chats = nil
	}
}

/// requireAuth enforces the session on screen entry: an invalid or expired
// session drops the user back to the auth screen, a valid one is extended
// (sliding window). Returns the replacement model, or nil when the session
// holds.
func requireAuth(deps *Deps) tea.Model {
	if !deps.Auth.CheckAndExpire() {
		deps.CloseChats()
		return NewAuthModel(deps, "your session has expired, please log in again")
	}
	deps.Auth.ExtendSession()
	return nil
}

// handleExpiry is the shared SessionExpiredMsg branch used by every screen
// past the auth gate.
func handleExpiry(deps *Deps) (tea.Model, tea.Cmd) {
	deps.CloseChats()
	m := NewAuthModel(deps, "your session has expired, please log in again")
	return m, m.Init()
}
