package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/models"
)

type broadcastTarget struct {
	disc   *models.Discussion
	chosen bool
}

// BroadcastModel sends one message to several contacts at once. Blocked
// contacts are listed but skipped at send time.
type BroadcastModel struct {
	deps *Deps

	targets  []broadcastTarget
	cursor   int
	textarea textarea.Model
	typing   bool
	status   string
	err      error
}

func NewBroadcastModel(deps *Deps) BroadcastModel {
	ta := textarea.New()
	ta.Placeholder = "Message to send..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	m := BroadcastModel{deps: deps, textarea: ta}
	for _, d := range deps.Chats.ActiveDiscussions() {
		m.targets = append(m.targets, broadcastTarget{disc: d})
	}
	return m
}

func (m BroadcastModel) Init() tea.Cmd {
	return nil
}

func (m BroadcastModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case tea.KeyMsg:
		if m.typing {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.typing = false
				m.textarea.Blur()
				return m, nil
			case "ctrl+s":
				return m.send()
			}
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "q":
			menu := NewMenuModel(m.deps, "")
			return menu, menu.Init()

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < len(m.targets)-1 {
				m.cursor++
			}
			return m, nil

		case " ", "space":
			if m.cursor < len(m.targets) {
				m.targets[m.cursor].chosen = !m.targets[m.cursor].chosen
			}
			return m, nil

		case "enter", "i":
			m.typing = true
			m.textarea.Focus()
			return m, textarea.Blink

		case "ctrl+s":
			return m.send()
		}
	}

	return m, nil
}

func (m BroadcastModel) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		m.err = fmt.Errorf("the message is empty")
		return m, nil
	}

	var chosen []*models.Discussion
	for _, t := range m.targets {
		if t.chosen {
			chosen = append(chosen, t.disc)
		}
	}
	if len(chosen) == 0 {
		m.err = fmt.Errorf("select at least one contact")
		return m, nil
	}

	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	m.deps.Chats.SendToMany(chosen, text, models.SelfMember)

	m.err = nil
	m.typing = false
	m.textarea.Reset()
	m.textarea.Blur()
	m.status = fmt.Sprintf("message sent to %d contacts", len(chosen))
	for i := range m.targets {
		m.targets[i].chosen = false
	}
	return m, nil
}

func (m BroadcastModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📤 Broadcast") + "\n\n")

	if len(m.targets) == 0 {
		b.WriteString(normalStyle.Render("  No contacts to send to.") + "\n\n")
		b.WriteString(helpStyle.Render("esc: back • ctrl+c: quit"))
		return b.String()
	}

	for i, t := range m.targets {
		cursor := "  "
		if i == m.cursor && !m.typing {
			cursor = inputStyle.Render("> ")
		}
		check := "[ ]"
		if t.chosen {
			check = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, check, t.disc.DisplayName())
		if t.disc.Blocked {
			line += blockedStyle.Render(" 🚫 blocked, will be skipped")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.textarea.View() + "\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	if m.typing {
		b.WriteString(helpStyle.Render("ctrl+s: send • esc: back to selection"))
	} else {
		b.WriteString(helpStyle.Render("↑↓/jk: navigate • space: toggle • enter: write • ctrl+s: send • esc: back"))
	}
	return b.String()
}
