package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/auth"
)

// AuthModel is the login/registration screen shown while no valid session
// exists.
type AuthModel struct {
	deps *Deps

	loginMode  bool
	inputs     []textinput.Model
	focusIndex int
	err        error
	notice     string
}

// NewAuthModel creates the auth screen. A non-empty notice is shown above
// the form (used for the session-expired message).
func NewAuthModel(deps *Deps, notice string) AuthModel {
	m := AuthModel{deps: deps, loginMode: true, notice: notice}
	m.buildInputs()
	return m
}

func (m *AuthModel) buildInputs() {
	placeholders := []string{"First name", "Last name", "Phone number"}
	// The login form is prefilled with the seeded default account, matching
	// the original demo.
	prefill := []string{"Rama", "Gueye", auth.DefaultPhone}

	m.inputs = make([]textinput.Model, 3)
	for i := range m.inputs {
		m.inputs[i] = textinput.New()
		m.inputs[i].Placeholder = placeholders[i]
		m.inputs[i].CharLimit = 60
		m.inputs[i].Width = 40
		if m.loginMode {
			m.inputs[i].SetValue(prefill[i])
		}
	}
	m.focusIndex = 0
	m.inputs[0].Focus()
}

func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

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

		case "ctrl+t":
			m.loginMode = !m.loginMode
			m.err = nil
			m.buildInputs()
			return m, nil

		case "enter":
			return m.submit()
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m AuthModel) submit() (tea.Model, tea.Cmd) {
	firstName := strings.TrimSpace(m.inputs[0].Value())
	lastName := strings.TrimSpace(m.inputs[1].Value())
	phone := strings.TrimSpace(m.inputs[2].Value())

	if !m.loginMode {
		if _, err := m.deps.Auth.Register(firstName, lastName, phone); err != nil {
			m.err = err
			return m, nil
		}
	}

	user, err := m.deps.Auth.Login(firstName, lastName, phone)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.deps.OpenChats(user.ID)
	menu := NewMenuModel(m.deps, fmt.Sprintf("Welcome %s!", user.FullName()))
	return menu, menu.Init()
}

func (m AuthModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("💬 Palabre") + "\n")
	if m.loginMode {
		b.WriteString(normalStyle.Render("Log in to your account") + "\n\n")
	} else {
		b.WriteString(normalStyle.Render("Create your account") + "\n\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}

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

	action := "log in"
	toggle := "register instead"
	if !m.loginMode {
		action = "register"
		toggle = "log in instead"
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("enter: %s • ctrl+t: %s • tab/↑↓: navigate • ctrl+c: quit", action, toggle)))

	return b.String()
}
