package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/models"
)

type archivedItem struct {
	disc  *models.Discussion
	group *models.Group
}

func (i archivedItem) Title() string {
	if i.disc != nil {
		return "💬 " + i.disc.DisplayName()
	}
	return "👥 " + i.group.Name
}

func (i archivedItem) Description() string {
	if i.disc != nil {
		if i.disc.LastMsg != "" {
			return i.disc.LastMsg
		}
		return "No messages"
	}
	return fmt.Sprintf("%d members", i.group.Members)
}

func (i archivedItem) FilterValue() string {
	return i.Title()
}

// ArchivesModel lists archived discussions and groups together and restores
// them on demand.
type ArchivesModel struct {
	deps         *Deps
	list         list.Model
	status       string
	windowWidth  int
	windowHeight int
}

func NewArchivesModel(deps *Deps) ArchivesModel {
	m := ArchivesModel{
		deps:         deps,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.list = newConversationList("Archives")
	m.reload()
	return m
}

func (m *ArchivesModel) reload() {
	var items []list.Item
	for _, d := range m.deps.Chats.ArchivedDiscussions() {
		items = append(items, archivedItem{disc: d})
	}
	for _, g := range m.deps.Chats.ArchivedGroups() {
		items = append(items, archivedItem{group: g})
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Archives - %d conversations", len(items))
}

func (m ArchivesModel) Init() tea.Cmd {
	return nil
}

func (m ArchivesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case ConversationsChangedMsg:
		m.reload()
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "q":
			menu := NewMenuModel(m.deps, "")
			return menu, menu.Init()

		case "enter", "u":
			if item, ok := m.list.SelectedItem().(archivedItem); ok {
				if item.disc != nil {
					m.deps.Chats.UnarchiveDiscussion(item.disc)
					m.status = fmt.Sprintf("%s restored", item.disc.DisplayName())
				} else {
					m.deps.Chats.UnarchiveGroup(item.group)
					m.status = fmt.Sprintf("%s restored", item.group.Name)
				}
				m.reload()
			}
			return m, nil

		case "x":
			if item, ok := m.list.SelectedItem().(archivedItem); ok {
				if item.disc != nil {
					m.deps.Chats.DeleteDiscussion(item.disc)
					m.status = fmt.Sprintf("%s deleted", item.disc.DisplayName())
				} else {
					m.deps.Chats.DeleteGroup(item.group)
					m.status = fmt.Sprintf("%s deleted", item.group.Name)
				}
				m.reload()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ArchivesModel) View() string {
	if len(m.list.Items()) == 0 {
		s := titleStyle.Render("Archives") + "\n\n"
		s += normalStyle.Render("  Nothing archived.") + "\n"
		s += "\n" + helpStyle.Render("esc: back • ctrl+c: quit")
		return s
	}

	s := m.list.View() + "\n"
	if m.status != "" {
		s += statusStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("enter/u: restore • x: delete • /: search • esc: back")
	return s
}
