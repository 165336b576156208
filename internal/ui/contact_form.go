package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ContactFormModel adds a new contact to the discussion list.
type ContactFormModel struct {
	deps       *Deps
	inputs     []textinput.Model
	focusIndex int
	err        error
}

func NewContactFormModel(deps *Deps) ContactFormModel {
	placeholders := []string{"First name", "Last name (optional)", "Phone number"}

	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 60
		inputs[i].Width = 50
	}
	inputs[0].Focus()

	return ContactFormModel{deps: deps, inputs: inputs}
}

func (m ContactFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ContactFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			menu := NewMenuModel(m.deps, "")
			return menu, menu.Init()

		case "tab", "shift+tab", "up", "down":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex--
				if m.focusIndex < 0 {
					m.focusIndex = len(m.inputs) - 1
				}
			} else {
				m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
			}
			for i := range m.inputs {
				m.inputs[i].Blur()
			}
			m.inputs[m.focusIndex].Focus()
			return m, nil

		case "enter", "ctrl+s":
			return m.save()
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m ContactFormModel) save() (tea.Model, tea.Cmd) {
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	contact, err := m.deps.Chats.AddContact(
		m.inputs[0].Value(),
		m.inputs[1].Value(),
		m.inputs[2].Value(),
	)
	if err != nil {
		m.err = err
		return m, nil
	}

	next := NewDiscussionsModel(m.deps)
	next.status = fmt.Sprintf("%s added to your contacts", contact.DisplayName())
	return next, next.Init()
}

func (m ContactFormModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Add Contact") + "\n\n")

	labels := []string{"First name (required):", "Last name:", "Phone (required):"}
	for i, input := range m.inputs {
		style := normalStyle
		if i == m.focusIndex {
			style = inputStyle
		}
		b.WriteString(style.Render(labels[i]) + "\n")
		b.WriteString(input.View() + "\n\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	b.WriteString(helpStyle.Render("enter: save • tab/↑↓: navigate • esc: cancel"))
	return b.String()
}
