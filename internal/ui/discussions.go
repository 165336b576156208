package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"palabre/internal/models"
)

type discussionItem struct {
	disc *models.Discussion
}

func (i discussionItem) Title() string {
	title := i.disc.DisplayName()
	if i.disc.Online {
		title += " 🟢"
	}
	if i.disc.Blocked {
		title += " 🚫"
	}
	return title
}

func (i discussionItem) Description() string {
	preview := i.disc.LastMsg
	if len(preview) > 50 {
		preview = preview[:47] + "..."
	}
	if preview == "" {
		preview = "No messages yet"
	}
	if i.disc.Time != "" {
		return fmt.Sprintf("%s • %s", i.disc.Time, preview)
	}
	return preview
}

func (i discussionItem) FilterValue() string {
	return i.disc.DisplayName()
}

type DiscussionsModel struct {
	deps         *Deps
	list         list.Model
	status       string
	windowWidth  int
	windowHeight int
}

func NewDiscussionsModel(deps *Deps) DiscussionsModel {
	m := DiscussionsModel{
		deps:         deps,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.list = newConversationList("Discussions")
	m.reload()
	return m
}

func newConversationList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return l
}

func (m *DiscussionsModel) reload() {
	discussions := m.deps.Chats.ActiveDiscussions()
	items := make([]list.Item, len(discussions))
	for i, d := range discussions {
		items[i] = discussionItem{disc: d}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Discussions - %d contacts", len(discussions))
}

func (m DiscussionsModel) Init() tea.Cmd {
	return nil
}

func (m DiscussionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

		case "enter":
			if item, ok := m.list.SelectedItem().(discussionItem); ok {
				if replacement := requireAuth(m.deps); replacement != nil {
					return replacement, replacement.Init()
				}
				next := NewChatPanelModel(m.deps, item.disc)
				return next, next.Init()
			}
			return m, nil

		case "a":
			if item, ok := m.list.SelectedItem().(discussionItem); ok {
				m.deps.Chats.ArchiveDiscussion(item.disc)
				m.status = fmt.Sprintf("%s archived", item.disc.DisplayName())
				m.reload()
			}
			return m, nil

		case "b":
			if item, ok := m.list.SelectedItem().(discussionItem); ok {
				if item.disc.Blocked {
					m.deps.Chats.UnblockDiscussion(item.disc)
					m.status = fmt.Sprintf("%s unblocked", item.disc.DisplayName())
				} else {
					m.deps.Chats.BlockDiscussion(item.disc)
					m.status = fmt.Sprintf("%s blocked", item.disc.DisplayName())
				}
				m.reload()
			}
			return m, nil

		case "x":
			if item, ok := m.list.SelectedItem().(discussionItem); ok {
				m.deps.Chats.DeleteDiscussion(item.disc)
				m.status = fmt.Sprintf("%s deleted", item.disc.DisplayName())
				m.reload()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m DiscussionsModel) View() string {
	if len(m.list.Items()) == 0 {
		s := titleStyle.Render("Discussions") + "\n\n"
		s += normalStyle.Render("  No active discussions.") + "\n"
		s += "\n" + helpStyle.Render("esc: back • ctrl+c: quit")
		return s
	}

	s := m.list.View() + "\n"
	if m.status != "" {
		s += statusStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("↑↓/jk: navigate • enter: open • a: archive • b: block • x: delete • /: search • esc: back")
	return s
}
