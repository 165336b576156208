package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuItem struct {
	title string
	desc  string
	key   string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

type MenuModel struct {
	deps         *Deps
	list         list.Model
	notice       string
	draftTotal   int
	windowWidth  int
	windowHeight int
}

// NewMenuModel creates the main menu shown after login.
func NewMenuModel(deps *Deps, notice string) MenuModel {
	m := MenuModel{
		deps:         deps,
		notice:       notice,
		draftTotal:   deps.Drafts.Total(),
		windowWidth:  80,
		windowHeight: 30,
	}
	m.list = buildMenuList(m.draftTotal)
	return m
}

func buildMenuList(draftTotal int) list.Model {
	draftsTitle := "📝 Drafts"
	if draftTotal > 0 {
		draftsTitle = fmt.Sprintf("📝 Drafts (%d)", draftTotal)
	}

	items := []list.Item{
		menuItem{title: "💬 Discussions", desc: "View and send messages", key: "discussions"},
		menuItem{title: "👥 Groups", desc: "Group conversations", key: "groups"},
		menuItem{title: "➕ Add contact", desc: "Save a new contact", key: "contact"},
		menuItem{title: draftsTitle, desc: "Unsent messages", key: "drafts"},
		menuItem{title: "📦 Archives", desc: "Archived conversations", key: "archives"},
		menuItem{title: "📤 Broadcast", desc: "Send to several contacts at once", key: "broadcast"},
		menuItem{title: "⚙️ Profile", desc: "Edit your account", key: "profile"},
		menuItem{title: "🚪 Log out", desc: "End your session", key: "logout"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "Palabre"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6)
		return m, nil

	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case draftCountMsg:
		if msg.total != m.draftTotal {
			m.draftTotal = msg.total
			selected := m.list.Index()
			m.list = buildMenuList(m.draftTotal)
			m.list.Select(selected)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		if msg.String() == "enter" {
			selectedItem, ok := m.list.SelectedItem().(menuItem)
			if !ok {
				return m, nil
			}
			return m.open(selectedItem.key)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) open(key string) (tea.Model, tea.Cmd) {
	if key == "logout" {
		m.deps.Auth.Logout()
		m.deps.CloseChats()
		a := NewAuthModel(m.deps, "you have been logged out")
		return a, a.Init()
	}

	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	switch key {
	case "discussions":
		next := NewDiscussionsModel(m.deps)
		return next, next.Init()
	case "groups":
		next := NewGroupsModel(m.deps)
		return next, next.Init()
	case "contact":
		next := NewContactFormModel(m.deps)
		return next, next.Init()
	case "drafts":
		next := NewDraftsModel(m.deps)
		return next, next.Init()
	case "archives":
		next := NewArchivesModel(m.deps)
		return next, next.Init()
	case "broadcast":
		next := NewBroadcastModel(m.deps)
		return next, next.Init()
	case "profile":
		next := NewProfileModel(m.deps)
		return next, next.Init()
	}
	return m, nil
}

func (m MenuModel) View() string {
	s := ""
	if user := m.deps.Auth.CurrentUser(); user != nil {
		s += statusStyle.Render(fmt.Sprintf("👤 %s · %s", user.FullName(), user.Phone)) + "\n"
	}
	if m.notice != "" {
		s += noticeStyle.Render(m.notice) + "\n"
	}
	s += m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
