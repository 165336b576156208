package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/auth"
)

// ProfileModel edits the logged-in user's account details.
type ProfileModel struct {
	deps       *Deps
	inputs     []textinput.Model
	focusIndex int
	err        error
	status     string
}

func NewProfileModel(deps *Deps) ProfileModel {
	placeholders := []string{"First name", "Last name", "Phone number"}

	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 60
		inputs[i].Width = 50
	}
	if user := deps.Auth.CurrentUser(); user != nil {
		inputs[0].SetValue(user.FirstName)
		inputs[1].SetValue(user.LastName)
		inputs[2].SetValue(user.Phone)
	}
	inputs[0].Focus()

	return ProfileModel{deps: deps, inputs: inputs}
}

func (m ProfileModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m ProfileModel) save() (tea.Model, tea.Cmd) {
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	user, err := m.deps.Auth.UpdateProfile(auth.ProfileUpdates{
		FirstName: strings.TrimSpace(m.inputs[0].Value()),
		LastName:  strings.TrimSpace(m.inputs[1].Value()),
		Phone:     strings.TrimSpace(m.inputs[2].Value()),
	})
	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.status = fmt.Sprintf("profile saved for %s", user.FullName())
	return m, nil
}

func (m ProfileModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("⚙️ Profile") + "\n\n")

	labels := []string{"First name:", "Last name:", "Phone:"}
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
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}

	b.WriteString(helpStyle.Render("enter: save • tab/↑↓: navigate • esc: back"))
	return b.String()
}
