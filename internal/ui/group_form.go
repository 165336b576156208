package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/chat"
	"palabre/internal/models"
)

type memberChoice struct {
	member models.GroupMember
	chosen bool
}

// GroupFormModel creates or edits a group: name, description, member
// selection, and the admin set.
type GroupFormModel struct {
	deps   *Deps
	target *models.Group

	nameInput textinput.Model
	descInput textinput.Model
	choices   []memberChoice
	admin     string

	focusIndex int
	err        error
	status     string
}

// NewGroupFormModel builds the form. A nil target means create.
func NewGroupFormModel(deps *Deps, target *models.Group) GroupFormModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "Group name"
	nameInput.CharLimit = 60
	nameInput.Width = 50
	nameInput.Focus()

	descInput := textinput.New()
	descInput.Placeholder = "Description (optional)"
	descInput.CharLimit = 120
	descInput.Width = 50

	m := GroupFormModel{
		deps:      deps,
		target:    target,
		nameInput: nameInput,
		descInput: descInput,
		admin:     models.SelfMember,
	}
	m.buildChoices()

	if target != nil {
		m.nameInput.SetValue(target.Name)
		m.descInput.SetValue(target.Description)
		m.admin = target.Admin
		for i := range m.choices {
			m.choices[i].chosen = memberIn(target.MembersList, m.choices[i].member)
		}
	} else {
		// Creating: the owning user is preselected.
		m.choices[0].chosen = true
	}

	return m
}

// buildChoices lists the owning user first, then every contact.
func (m *GroupFormModel) buildChoices() {
	m.choices = []memberChoice{{member: models.GroupMember{FirstName: models.SelfMember}}}
	for _, d := range m.deps.Chats.Discussions() {
		m.choices = append(m.choices, memberChoice{member: models.GroupMember{
			FirstName: d.FirstName,
			Name:      d.Name,
			Phone:     d.Phone,
		}})
	}
}

func memberIn(members []models.GroupMember, candidate models.GroupMember) bool {
	for _, member := range members {
		if candidate.IsSelf() && member.IsSelf() {
			return true
		}
		if !candidate.IsSelf() && strings.EqualFold(member.DisplayName(), candidate.DisplayName()) {
			return true
		}
	}
	return false
}

// adminName is the identifier passed to the store for a chosen admin.
func adminName(member models.GroupMember) string {
	if member.IsSelf() {
		return models.SelfMember
	}
	if member.Name != "" {
		return member.Name
	}
	return member.DisplayName()
}

func (m GroupFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m GroupFormModel) totalRows() int {
	return 2 + len(m.choices)
}

func (m GroupFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			next := NewGroupsModel(m.deps)
			return next, next.Init()

		case "tab", "down", "shift+tab", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex--
				if m.focusIndex < 0 {
					m.focusIndex = m.totalRows() - 1
				}
			} else {
				m.focusIndex = (m.focusIndex + 1) % m.totalRows()
			}
			m.updateFocus()
			return m, nil

		case "ctrl+s":
			return m.save()
		}

		if m.focusIndex >= 2 {
			return m.memberKey(msg.String())
		}

	default:
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	cmds = append(cmds, cmd)
	m.descInput, cmd = m.descInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *GroupFormModel) updateFocus() {
	m.nameInput.Blur()
	m.descInput.Blur()
	switch m.focusIndex {
	case 0:
		m.nameInput.Focus()
	case 1:
		m.descInput.Focus()
	}
}

// memberKey handles keys on a focused member row.
func (m GroupFormModel) memberKey(key string) (tea.Model, tea.Cmd) {
	idx := m.focusIndex - 2
	if idx < 0 || idx >= len(m.choices) {
		return m, nil
	}
	choice := &m.choices[idx]

	switch key {
	case " ", "space":
		choice.chosen = !choice.chosen
		return m, nil

	case "a":
		if !choice.chosen {
			choice.chosen = true
		}
		m.admin = adminName(choice.member)
		m.status = fmt.Sprintf("%s is now the primary admin", choice.member.DisplayName())
		return m, nil

	case "p":
		if m.target == nil {
			return m, nil
		}
		if err := m.deps.Chats.PromoteAdmin(m.target, adminName(choice.member)); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = fmt.Sprintf("%s promoted to admin", choice.member.DisplayName())
		}
		return m, nil

	case "d":
		if m.target == nil {
			return m, nil
		}
		if err := m.deps.Chats.DemoteAdmin(m.target, adminName(choice.member)); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = fmt.Sprintf("%s demoted", choice.member.DisplayName())
		}
		return m, nil
	}
	return m, nil
}

func (m GroupFormModel) save() (tea.Model, tea.Cmd) {
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	name := strings.TrimSpace(m.nameInput.Value())
	description := strings.TrimSpace(m.descInput.Value())

	members := make([]models.GroupMember, 0, len(m.choices))
	for _, choice := range m.choices {
		if choice.chosen {
			members = append(members, choice.member)
		}
	}

	var err error
	if m.target == nil {
		_, err = m.deps.Chats.CreateGroup(name, description, m.admin, members)
	} else {
		err = m.deps.Chats.UpdateGroup(m.target, name, description, m.admin, members)
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	next := NewGroupsModel(m.deps)
	next.status = fmt.Sprintf("%s saved", name)
	return next, next.Init()
}

func (m GroupFormModel) View() string {
	var b strings.Builder

	title := "New Group"
	if m.target != nil {
		title = "Edit Group"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	nameLabel := normalStyle
	if m.focusIndex == 0 {
		nameLabel = inputStyle
	}
	b.WriteString(nameLabel.Render("Name (required):") + "\n")
	b.WriteString(m.nameInput.View() + "\n\n")

	descLabel := normalStyle
	if m.focusIndex == 1 {
		descLabel = inputStyle
	}
	b.WriteString(descLabel.Render("Description:") + "\n")
	b.WriteString(m.descInput.View() + "\n\n")

	b.WriteString(normalStyle.Render("Members:") + "\n")
	for i, choice := range m.choices {
		cursor := "  "
		if m.focusIndex == i+2 {
			cursor = inputStyle.Render("> ")
		}
		check := "[ ]"
		if choice.chosen {
			check = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, check, choice.member.DisplayName())

		name := adminName(choice.member)
		if strings.EqualFold(name, m.admin) {
			line += badgeStyle.Render(" ★ admin")
		} else if m.target != nil && chat.IsAdmin(m.target, name) {
			line += statusStyle.Render(" admin")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	help := "tab/↑↓: navigate • space: toggle member • a: set admin • ctrl+s: save • esc: cancel"
	if m.target != nil {
		help = "tab/↑↓: navigate • space: toggle • a: set admin • p/d: promote/demote • ctrl+s: save • esc: cancel"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
