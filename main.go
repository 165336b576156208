package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/auth"
	"palabre/internal/config"
	"palabre/internal/draft"
	"palabre/internal/store"
	"palabre/internal/ui"
)

const version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("Palabre v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	cfg := config.Load()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error opening the data store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("closing data store", "err", err)
		}
	}()

	authMgr := auth.NewManager(st, cfg.SessionTimeout)
	drafts := draft.NewManager(st, cfg.DraftDebounce, cfg.DraftRetention)

	deps := &ui.Deps{
		Cfg:    cfg,
		Store:  st,
		Auth:   authMgr,
		Drafts: drafts,
	}

	p := tea.NewProgram(ui.NewAuthModel(deps, ""), tea.WithAltScreen())
	deps.Send = p.Send
	authMgr.SetOnExpire(func() { p.Send(ui.SessionExpiredMsg{}) })
	drafts.SetIndicator(deps.DraftIndicator())

	st.StartAutoFlush(cfg.FlushInterval)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `Palabre - Terminal Chat

Usage:
  palabre            Start the chat client
  palabre version    Show version information
  palabre help       Show this help message

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Select/Open item
  ESC               Go back
  q                 Quit from current view
  ctrl+c            Force quit

Account:
  enter             Log in or register
  ctrl+t            Switch between login and registration

Menu:
  💬 Discussions    One-to-one conversations
  👥 Groups         Group conversations
  ➕ Add contact    Save a new contact
  📝 Drafts         Unsent messages, auto-saved while you type
  📦 Archives       Archived conversations
  📤 Broadcast      Send one message to several contacts
  ⚙️ Profile        Edit your account

Conversations:
  ctrl+s            Send message
  ctrl+l            Clear history
  a                 Archive
  b                 Block/unblock
  x                 Delete
  /                 Search

Storage:
  All data lives in ~/.palabre/palabre.db. Sessions expire after 30
  minutes of inactivity. Drafts older than 30 days are purged at startup.
`
	fmt.Print(help)
}
