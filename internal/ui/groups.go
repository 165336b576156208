package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/models"
)

type groupItem struct {
	group *models.Group
}

func (i groupItem) Title() string {
	return "👥 " + i.group.Name
}

func (i groupItem) Description() string {
	names := make([]string, 0, len(i.group.MembersList))
	for _, member := range i.group.MembersList {
		names = append(names, member.DisplayName())
	}
	desc := fmt.Sprintf("%d members • %s", i.group.Members, strings.Join(names, ", "))
	if len(desc) > 70 {
		desc = desc[:67] + "..."
	}
	return desc
}

func (i groupItem) FilterValue() string {
	return i.group.Name
}

type GroupsModel struct {
	deps         *Deps
	list         list.Model
	status       string
	err          error
	windowWidth  int
	windowHeight int
}

func NewGroupsModel(deps *Deps) GroupsModel {
	m := GroupsModel{
		deps:         deps,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.list = newConversationList("Groups")
	m.reload()
	return m
}

func (m *GroupsModel) reload() {
	groups := m.deps.Chats.ActiveGroups()
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = groupItem{group: g}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Groups - %d groups", len(groups))
}

func (m GroupsModel) Init() tea.Cmd {
	return nil
}

func (m GroupsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

		case "n":
			if replacement := requireAuth(m.deps); replacement != nil {
				return replacement, replacement.Init()
			}
			next := NewGroupFormModel(m.deps, nil)
			return next, next.Init()

		case "e":
			if item, ok := m.list.SelectedItem().(groupItem); ok {
				if replacement := requireAuth(m.deps); replacement != nil {
					return replacement, replacement.Init()
				}
				next := NewGroupFormModel(m.deps, item.group)
				return next, next.Init()
			}
			return m, nil

		case "enter":
			if item, ok := m.list.SelectedItem().(groupItem); ok {
				if replacement := requireAuth(m.deps); replacement != nil {
					return replacement, replacement.Init()
				}
				next := NewGroupChatModel(m.deps, item.group)
				return next, next.Init()
			}
			return m, nil

		case "a":
			if item, ok := m.list.SelectedItem().(groupItem); ok {
				m.deps.Chats.ArchiveGroup(item.group)
				m.status = fmt.Sprintf("%s archived", item.group.Name)
				m.reload()
			}
			return m, nil

		case "x":
			if item, ok := m.list.SelectedItem().(groupItem); ok {
				m.deps.Chats.DeleteGroup(item.group)
				m.status = fmt.Sprintf("%s deleted", item.group.Name)
				m.reload()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m GroupsModel) View() string {
	if len(m.list.Items()) == 0 {
		s := titleStyle.Render("Groups") + "\n\n"
		s += normalStyle.Render("  No active groups.") + "\n"
		s += "\n" + helpStyle.Render("n: new group • esc: back • ctrl+c: quit")
		return s
	}

	s := m.list.View() + "\n"
	if m.status != "" {
		s += statusStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("enter: open • n: new • e: edit • a: archive • x: delete • /: search • esc: back")
	return s
}
